package coordinator

import (
	"context"
	"strings"
	"sync"

	"github.com/voidshard/foreman/pkg/database"
	"github.com/voidshard/foreman/pkg/structs"
)

// appCache is a read through cache of registered applications keyed by lower
// case app id. A miss reloads every application from the database.
type appCache struct {
	db database.Database

	lock sync.RWMutex
	apps map[string]*structs.Application
}

func newAppCache(db database.Database) *appCache {
	return &appCache{db: db}
}

// get returns the application or nil if it isn't registered.
func (c *appCache) get(ctx context.Context, appID string) (*structs.Application, error) {
	key := strings.ToLower(appID)

	c.lock.RLock()
	app, ok := c.apps[key]
	c.lock.RUnlock()
	if ok {
		return app, nil
	}

	err := c.reload(ctx)
	if err != nil {
		return nil, err
	}

	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.apps[key], nil
}

func (c *appCache) reload(ctx context.Context) error {
	apps, err := c.db.Applications(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]*structs.Application, len(apps))
	for _, a := range apps {
		byID[strings.ToLower(a.AppID)] = a
	}

	c.lock.Lock()
	c.apps = byID
	c.lock.Unlock()
	return nil
}

func (c *appCache) reset() {
	c.lock.Lock()
	c.apps = nil
	c.lock.Unlock()
}
