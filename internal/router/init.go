package router

import (
	"github.com/redis/go-redis/v9"

	handlers "github.com/luminhq/user-service/internal/interface/http"
	"github.com/luminhq/user-service/internal/router/modules"
)

// Deps carries the handlers and shared clients the modules need. The
// caller builds them once and passes them in; no globals.
type Deps struct {
	Users *handlers.UserHandler
	Tasks *handlers.TaskHandler
	Redis *redis.Client
}

// InitModules registers all feature modules with the router registry.
func InitModules(r *Registry, d Deps) {
	r.Add(modules.NewUserModule(d.Users, d.Redis))
	r.Add(modules.NewTaskModule(d.Tasks))
}
