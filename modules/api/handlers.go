package api

import (
	"context"
	"time"

	"github.com/example/task-api/domain/pagination"
	"github.com/example/task-api/domain/validation"
	"github.com/example/task-api/modules/task"
	"github.com/example/task-api/modules/user"
	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 5 * time.Second

// registerRoutes sets up all HTTP routes, at the root and under /api.
func (m *APIModule) registerRoutes(app *fiber.App) {
	app.Get("/health", m.healthCheck)

	m.resourceRoutes(app)
	m.resourceRoutes(app.Group("/api"))
}

func (m *APIModule) resourceRoutes(r fiber.Router) {
	users := r.Group("/users")
	users.Get("/", m.listUsers)
	users.Post("/", m.createUser)
	users.Get("/:id", m.getUser)

	tasks := r.Group("/tasks")
	tasks.Get("/", m.listTasks)
	tasks.Post("/", m.createTask)
	tasks.Get("/:id", m.getTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Delete("/:id", m.deleteTask)

	r.Get("/activity", m.listActivity)
}

// listUsers handles GET /users.
func (m *APIModule) listUsers(c *fiber.Ctx) error {
	params := pagination.Parse(c.Query("page"), c.Query("limit"))

	users, meta, err := m.users.ListUsers(c.UserContext(), params)
	if err != nil {
		return m.respondError(c, err, "Failed to fetch users")
	}
	return c.JSON(UserListResponse{Data: users, Pagination: meta})
}

// createUser handles POST /users.
func (m *APIModule) createUser(c *fiber.Ctx) error {
	body, err := validation.ParseBody(c.Body())
	if err != nil {
		return malformedBody(c)
	}

	created, err := m.users.CreateUser(c.UserContext(), user.CreateUserRequest{
		Username: body.Get("username"),
		Email:    body.Get("email"),
	})
	if err != nil {
		return m.respondError(c, err, "Failed to create user")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// getUser handles GET /users/:id.
func (m *APIModule) getUser(c *fiber.Ctx) error {
	id, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "User not found"})
	}

	found, err := m.users.GetUser(c.UserContext(), id)
	if err != nil {
		return m.respondError(c, err, "Failed to fetch user")
	}
	return c.JSON(found)
}

// listTasks handles GET /tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	params := pagination.Parse(c.Query("page"), c.Query("limit"))

	tasks, meta, err := m.tasks.ListTasks(c.UserContext(), task.ListTasksRequest{
		Page:   params.Page,
		Limit:  params.Limit,
		UserID: c.Query("userId"),
	})
	if err != nil {
		return m.respondError(c, err, "Failed to fetch tasks")
	}
	return c.JSON(TaskListResponse{Data: tasks, Pagination: meta})
}

// createTask handles POST /tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	body, err := validation.ParseBody(c.Body())
	if err != nil {
		return malformedBody(c)
	}

	created, err := m.tasks.CreateTask(c.UserContext(), task.CreateTaskRequest{
		Title:       body.Get("title"),
		Description: body.Get("description"),
		Status:      body.Get("status"),
		UserID:      body.Get("userId"),
	})
	if err != nil {
		return m.respondError(c, err, "Failed to create task")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// getTask handles GET /tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	id, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return taskNotFound(c)
	}

	found, err := m.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return m.respondError(c, err, "Failed to fetch task")
	}
	return c.JSON(found)
}

// updateTask handles PUT /tasks/:id. Only the supplied fields change.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	id, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return taskNotFound(c)
	}

	body, err := validation.ParseBody(c.Body())
	if err != nil {
		return malformedBody(c)
	}

	updated, err := m.tasks.UpdateTask(c.UserContext(), task.UpdateTaskRequest{
		TaskID:      id,
		Title:       body.Get("title"),
		Description: body.Get("description"),
		Status:      body.Get("status"),
	})
	if err != nil {
		return m.respondError(c, err, "Failed to update task")
	}
	return c.JSON(updated)
}

// deleteTask handles DELETE /tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	id, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return taskNotFound(c)
	}

	if err := m.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return m.respondError(c, err, "Failed to delete task")
	}
	return c.JSON(MessageResponse{Message: "Task deleted successfully"})
}

// listActivity handles GET /activity.
func (m *APIModule) listActivity(c *fiber.Ctx) error {
	entries, err := m.activity.ListActivity(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return m.respondError(c, err, "Failed to fetch activity")
	}
	return c.JSON(ActivityResponse{Data: entries})
}

// healthCheck handles GET /health.
func (m *APIModule) healthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy"}
	if len(m.checks) > 0 {
		resp.Modules = make(map[string]ModuleHealth, len(m.checks))
	}
	for _, check := range m.checks {
		status := check.Health(ctx)
		resp.Modules[check.Name()] = ModuleHealth{
			Healthy: status.Healthy,
			Message: status.Message,
			Details: status.Details,
		}
		if !status.Healthy {
			resp.Status = "unhealthy"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func taskNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Task not found"})
}
