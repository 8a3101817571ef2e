package functions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/proxyd/internal/users"
)

// NewDefaultRegistry returns a Registry preloaded with the back-office
// functions the development proxy supports. CPD activity records live in
// process memory; the user directory is whatever Store is supplied.
func NewDefaultRegistry(usersStore users.Store) *Registry {
	registry := NewRegistry()
	cpd := &cpdLog{}

	registry.Register(
		"get_user_profile",
		`{
			"type": "object",
			"required": ["user_id"],
			"properties": {
				"user_id": { "type": "string", "minLength": 1 }
			},
			"additionalProperties": false
		}`,
		func(
			ctx context.Context,
			_ comply.UserProfile,
			params map[string]interface{},
		) (map[string]interface{}, error) {
			userID, _ := params["user_id"].(string)
			user, err := usersStore.Get(ctx, userID)
			if err != nil {
				return nil, err
			}
			return toMap(user)
		},
	)

	registry.Register(
		"list_users",
		"",
		func(
			ctx context.Context,
			_ comply.UserProfile,
			_ map[string]interface{},
		) (map[string]interface{}, error) {
			userList, err := usersStore.List(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"users": userList}, nil
		},
	)

	registry.Register(
		"delete_user",
		`{
			"type": "object",
			"required": ["user_id"],
			"properties": {
				"user_id": { "type": "string", "minLength": 1 }
			},
			"additionalProperties": false
		}`,
		func(
			ctx context.Context,
			_ comply.UserProfile,
			params map[string]interface{},
		) (map[string]interface{}, error) {
			userID, _ := params["user_id"].(string)
			if err := usersStore.Delete(ctx, userID); err != nil {
				return nil, err
			}
			return map[string]interface{}{"deleted": true}, nil
		},
	)

	registry.Register(
		"create_cpd_entry",
		`{
			"type": "object",
			"required": ["activity"],
			"properties": {
				"activity": { "type": "string", "minLength": 1 },
				"hours": { "type": "number", "minimum": 0 }
			}
		}`,
		func(
			_ context.Context,
			caller comply.UserProfile,
			params map[string]interface{},
		) (map[string]interface{}, error) {
			activity, _ := params["activity"].(string)
			hours, _ := params["hours"].(float64)
			return cpd.add(caller.ID, activity, hours), nil
		},
	)

	registry.Register(
		"list_cpd_activities",
		"",
		func(
			_ context.Context,
			_ comply.UserProfile,
			_ map[string]interface{},
		) (map[string]interface{}, error) {
			return map[string]interface{}{
				"cpd_activities": cpd.list(),
			}, nil
		},
	)

	registry.Register(
		"get_dashboard",
		"",
		func(
			ctx context.Context,
			_ comply.UserProfile,
			_ map[string]interface{},
		) (map[string]interface{}, error) {
			userList, err := usersStore.List(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"users":          len(userList),
				"cpd_activities": len(cpd.list()),
			}, nil
		},
	)

	return registry
}

type cpdEntry struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Activity  string  `json:"activity"`
	Hours     float64 `json:"hours"`
	CreatedAt string  `json:"created_at"`
}

type cpdLog struct {
	mu      sync.Mutex
	entries []cpdEntry
}

func (c *cpdLog) add(
	userID string,
	activity string,
	hours float64,
) map[string]interface{} {
	e := cpdEntry{
		ID:        uuid.NewV4().String(),
		UserID:    userID,
		Activity:  activity,
		Hours:     hours,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
	result, _ := toMap(e) // nolint: errcheck
	return result
}

func (c *cpdLog) list() []cpdEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]cpdEntry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

func toMap(v interface{}) (map[string]interface{}, error) {
	vBytes, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling result")
	}
	result := map[string]interface{}{}
	if err := json.Unmarshal(vBytes, &result); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling result")
	}
	return result, nil
}
