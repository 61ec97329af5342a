package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable Engine",
        "description": "Constraint-solving timetable engine: schedules, solver runs, lunch waves, and exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and account operations"},
        {"name": "Roster", "description": "Teachers, rooms, courses, and students"},
        {"name": "Schedules", "description": "Timetables, slots, and conflicts"},
        {"name": "Solver", "description": "Synchronous solving and evaluation"},
        {"name": "Optimization", "description": "Background optimization runs and configs"},
        {"name": "Lunch", "description": "Lunch wave assignment"},
        {"name": "Capacity", "description": "Capacity analysis"},
        {"name": "Exports", "description": "CSV and PDF exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain a JWT",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["DRAFT", "PUBLISHED", "ARCHIVED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/solve": {
            "post": {
                "tags": ["Solver"],
                "summary": "Solve a schedule synchronously",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SolveResponse"}},
                    "404": {"description": "Schedule not found"}
                }
            }
        },
        "/schedules/{id}/solve/partial": {
            "post": {
                "tags": ["Solver"],
                "summary": "Re-solve a subset of slots, keeping the rest fixed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PartialSolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SolveResponse"}}
                }
            }
        },
        "/schedules/{id}/evaluate": {
            "get": {
                "tags": ["Solver"],
                "summary": "Score a schedule without changing it",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "configId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ScoreResponse"}}
                }
            }
        },
        "/schedules/{id}/optimize": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Start a background optimization run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/StartOptimizationRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/conflicts/detect": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Run conflict detection over the current slots",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/lunch/assign": {
            "post": {
                "tags": ["Lunch"],
                "summary": "Assign all active students to lunch waves",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignLunchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/capacity": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Analyze current roster capacity",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a timetable as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export via its signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "termId": {"type": "string"}
            },
            "required": ["name", "termId"]
        },
        "SolveRequest": {
            "type": "object",
            "properties": {
                "configId": {"type": "string"}
            }
        },
        "PartialSolveRequest": {
            "type": "object",
            "properties": {
                "slotIds": {"type": "array", "items": {"type": "string"}},
                "configId": {"type": "string"}
            },
            "required": ["slotIds"]
        },
        "StartOptimizationRequest": {
            "type": "object",
            "properties": {
                "configId": {"type": "string"}
            }
        },
        "AssignLunchRequest": {
            "type": "object",
            "properties": {
                "method": {"type": "string", "enum": ["BY_GRADE_LEVEL", "ALPHABETICAL", "RANDOM", "BALANCED", "BY_STUDENT_ID"]}
            },
            "required": ["method"]
        },
        "SolveResponse": {
            "type": "object",
            "properties": {
                "scheduleId": {"type": "string"},
                "score": {"$ref": "#/definitions/ScoreResponse"},
                "iterations": {"type": "integer"},
                "durationMs": {"type": "integer"}
            }
        },
        "ScoreResponse": {
            "type": "object",
            "properties": {
                "hardViolations": {"type": "integer"},
                "softScore": {"type": "number"},
                "quality": {"type": "number"},
                "feasible": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
