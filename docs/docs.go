// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["Health"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}},
        "/api/auth/register": {"post": {"tags": ["Auth"], "summary": "Register", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "409": {"description": "Conflict"}}}},
        "/api/auth/login": {"post": {"tags": ["Auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/api/auth/refresh": {"post": {"tags": ["Auth"], "summary": "Refresh access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}}},
        "/api/auth/logout": {"post": {"tags": ["Auth"], "summary": "Logout", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/auth/profile": {
            "get": {"tags": ["Auth"], "summary": "Profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Auth"], "summary": "Update profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/auth/forgot-password": {"post": {"tags": ["Auth"], "summary": "Request password reset", "responses": {"200": {"description": "OK"}}}},
        "/api/auth/reset-password": {"post": {"tags": ["Auth"], "summary": "Reset password", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid token"}}}},
        "/api/users": {"get": {"tags": ["Users"], "summary": "List users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/users/stats": {"get": {"tags": ["Users"], "summary": "User statistics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get user", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Users"], "summary": "Update user", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["Users"], "summary": "Delete user", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/tasks": {
            "get": {"tags": ["Tasks"], "summary": "List tasks", "security": [{"BearerAuth": []}], "parameters": [
                {"name": "page", "in": "query", "type": "integer"},
                {"name": "limit", "in": "query", "type": "integer"},
                {"name": "status", "in": "query", "type": "string"},
                {"name": "priority", "in": "query", "type": "string"},
                {"name": "assignee", "in": "query", "type": "string"},
                {"name": "search", "in": "query", "type": "string"},
                {"name": "sortBy", "in": "query", "type": "string"},
                {"name": "sortOrder", "in": "query", "type": "string"},
                {"name": "dueDate", "in": "query", "type": "string"}
            ], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Tasks"], "summary": "Create task", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}}
        },
        "/api/tasks/stats": {"get": {"tags": ["Tasks"], "summary": "Task statistics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/tasks/export": {"get": {"tags": ["Tasks"], "summary": "Export tasks", "security": [{"BearerAuth": []}], "produces": ["application/json", "text/csv", "application/pdf"], "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}], "responses": {"200": {"description": "OK"}}}},
        "/api/tasks/bulk": {"patch": {"tags": ["Tasks"], "summary": "Bulk update tasks", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}, "403": {"description": "Insufficient permissions"}}}},
        "/api/tasks/{id}": {
            "get": {"tags": ["Tasks"], "summary": "Get task", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Task not found"}}},
            "put": {"tags": ["Tasks"], "summary": "Update task", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Task not found"}}},
            "delete": {"tags": ["Tasks"], "summary": "Delete task", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Task not found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Task Tracker API",
	Description:      "Multi-user task tracking REST service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
