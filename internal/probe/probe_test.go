package probe

import (
	"context"
	"errors"
	"testing"

	monerrors "github.com/devrev/pairdb/replica-monitor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockConnection is a mock implementation of store.Connection
type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) ReplicationInfo(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func TestProbe_Check(t *testing.T) {
	tests := []struct {
		name       string
		info       map[string]string
		err        error
		wantStatus Status
	}{
		{
			name:       "sync not in progress",
			info:       map[string]string{"role": "slave", "master_sync_in_progress": "0"},
			wantStatus: StatusHealthy,
		},
		{
			name:       "full resync in progress",
			info:       map[string]string{"role": "slave", "master_sync_in_progress": "1"},
			wantStatus: StatusResyncing,
		},
		{
			name:       "key absent on a master",
			info:       map[string]string{"role": "master", "connected_slaves": "2"},
			wantStatus: StatusHealthy,
		},
		{
			name:       "unexpected value is not a resync",
			info:       map[string]string{"master_sync_in_progress": "yes"},
			wantStatus: StatusHealthy,
		},
		{
			name:       "query failure",
			err:        errors.New("i/o timeout"),
			wantStatus: StatusUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := new(MockConnection)
			if tt.err != nil {
				conn.On("ReplicationInfo", mock.Anything).Return(nil, tt.err).Once()
			} else {
				conn.On("ReplicationInfo", mock.Anything).Return(tt.info, nil).Once()
			}

			res := New().Check(context.Background(), conn)

			assert.Equal(t, tt.wantStatus, res.Status)
			conn.AssertNumberOfCalls(t, "ReplicationInfo", 1)

			if tt.err != nil {
				assert.Nil(t, res.Info)
				assert.ErrorIs(t, res.Err, tt.err)
				assert.Equal(t, monerrors.CodeQueryError, monerrors.GetCode(res.Err))
			} else {
				assert.NoError(t, res.Err)
				assert.Equal(t, tt.info, res.Info)
			}
		})
	}
}

func TestProbe_WithSyncKey(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ReplicationInfo", mock.Anything).
		Return(map[string]string{"master_sync_in_progress": "0", "loading": "1"}, nil)

	p := New(WithSyncKey("loading"))
	assert.Equal(t, "loading", p.SyncKey())
	assert.Equal(t, StatusResyncing, p.Check(context.Background(), conn).Status)

	assert.Equal(t, DefaultSyncKey, New(WithSyncKey("")).SyncKey())
}

func TestStatus_Alive(t *testing.T) {
	assert.True(t, StatusHealthy.Alive())
	assert.False(t, StatusResyncing.Alive())
	assert.False(t, StatusUnreachable.Alive())

	assert.Equal(t, "healthy", StatusHealthy.String())
	assert.Equal(t, "resyncing", StatusResyncing.String())
	assert.Equal(t, "unreachable", StatusUnreachable.String())
	assert.Equal(t, "unknown", Status(99).String())
}

func TestUnreachable(t *testing.T) {
	cause := monerrors.ConnectionFailed("r:6379", errors.New("refused"))
	res := Unreachable(cause, 0)

	assert.Equal(t, StatusUnreachable, res.Status)
	assert.Equal(t, cause, res.Err)
	assert.Nil(t, res.Info)
}
