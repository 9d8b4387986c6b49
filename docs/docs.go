// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/login": {
            "get": {"produces": ["text/html"], "tags": ["auth"], "summary": "Login form",
                "parameters": [
                    {"type": "string", "description": "Local path to continue to after login", "name": "redirect", "in": "query"},
                    {"type": "string", "description": "Error flag set by the OAuth callback", "name": "error", "in": "query"},
                    {"type": "boolean", "description": "Use the admin login endpoint", "name": "admin", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}},
            "post": {"consumes": ["application/x-www-form-urlencoded"], "produces": ["text/html"], "tags": ["auth"], "summary": "Submit credentials",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "boolean", "description": "Use the admin login endpoint", "name": "admin", "in": "formData"},
                    {"type": "string", "description": "Local path to continue to", "name": "redirect", "in": "formData"}
                ],
                "responses": {"303": {"description": "See Other"}, "401": {"description": "Unauthorized"}, "422": {"description": "Unprocessable Entity"}, "429": {"description": "Too Many Requests"}}}
        },
        "/auth/callback": {
            "get": {"tags": ["auth"], "summary": "OAuth callback",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "token", "in": "query", "required": true},
                    {"type": "string", "description": "Refresh token", "name": "refreshToken", "in": "query", "required": true},
                    {"type": "string", "description": "User id", "name": "userId", "in": "query"},
                    {"type": "string", "description": "Email", "name": "email", "in": "query"},
                    {"type": "string", "description": "Display name", "name": "name", "in": "query"},
                    {"type": "string", "description": "Avatar URL", "name": "picture", "in": "query"}
                ],
                "responses": {"302": {"description": "Found"}}}
        },
        "/logout": {
            "post": {"tags": ["auth"], "summary": "Log out", "responses": {"303": {"description": "See Other"}}}
        },
        "/dashboard": {
            "get": {"produces": ["text/html"], "tags": ["pages"], "summary": "Dashboard", "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}
        },
        "/admin/users": {
            "get": {"produces": ["text/html"], "tags": ["pages"], "summary": "User administration", "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}
        },
        "/approvals": {
            "get": {"produces": ["text/html"], "tags": ["pages"], "summary": "Pending approvals", "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}
        },
        "/reports": {
            "get": {"produces": ["text/html"], "tags": ["pages"], "summary": "Reports", "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}
        },
        "/projects/{id}": {
            "get": {"produces": ["text/html"], "tags": ["pages"], "summary": "Project detail",
                "parameters": [{"type": "string", "description": "Project id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}, "404": {"description": "Not Found"}}}
        },
        "/unauthorized": {
            "get": {"produces": ["text/html"], "tags": ["pages"], "summary": "Access denied page",
                "parameters": [{"type": "string", "description": "Denial reason", "name": "reason", "in": "query"}],
                "responses": {"403": {"description": "Forbidden"}}}
        },
        "/api/session": {
            "get": {"produces": ["application/json"], "tags": ["session"], "summary": "Current session",
                "parameters": [{"type": "boolean", "description": "Wait for a pending session check", "name": "wait", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}}}}
        },
        "/health": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}}
        },
        "/health/ready": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }}
        }
    },
    "definitions": {
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "authenticated": {"type": "boolean"},
                "isAdmin": {"type": "boolean"},
                "isManager": {"type": "boolean"},
                "user": {"type": "object"},
                "error": {"type": "string"},
                "checkedAt": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Activity Tracker Web",
	Description:      "Server-rendered front end and session broker for the Activity Tracker API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
