// Package docs registers the Swagger document served at /swagger/*any.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [{"description": "Operator credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "description": "Returns a bearer token for the /api/v1 endpoints.",
                "parameters": [{"description": "Operator credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/capture/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["capture"],
                "summary": "Start capture",
                "description": "Resets the record store and starts a new device session. Only one session runs at a time.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.captureResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/capture/stop": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["capture"],
                "summary": "Stop capture",
                "description": "Stops the running session and waits for it to release the device.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.captureResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/capture/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["capture"],
                "summary": "Capture status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.CaptureStatus"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/records": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List records",
                "description": "Persisted measurements, oldest first. Times without a zone are local. A date-only 'to' includes the whole day.",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')", "name": "to", "in": "query"},
                    {"type": "integer", "description": "Keep only the newest N records", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, records", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/records/latest": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Latest record",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Measurement"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "handlers.captureResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "started"}, "capture": {"$ref": "#/definitions/service.CaptureStatus"}}
        },
        "recorder.Stats": {
            "type": "object",
            "properties": {
                "saved": {"type": "integer"},
                "throttled": {"type": "integer"},
                "last_accepted_at": {"type": "string", "format": "date-time"}
            }
        },
        "service.CaptureStatus": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "running": {"type": "boolean"},
                "state": {"type": "string", "enum": ["idle", "scanning", "connecting", "subscribed", "receiving", "disconnected", "error"]},
                "device": {"type": "string", "example": "UD18_BLE"},
                "address": {"type": "string"},
                "started_at": {"type": "string", "format": "date-time"},
                "ended_at": {"type": "string", "format": "date-time"},
                "frames_decoded": {"type": "integer"},
                "frames_rejected": {"type": "integer"},
                "recorder": {"$ref": "#/definitions/recorder.Stats"},
                "last_error": {"type": "string"}
            }
        },
        "models.Measurement": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string", "format": "date-time"},
                "voltage": {"type": "number", "example": 5.08},
                "current": {"type": "number", "example": 2.4},
                "power": {"type": "number", "example": 12.192},
                "capacity_mAh": {"type": "integer", "example": 120},
                "energy_Wh": {"type": "number", "example": 0.61},
                "d_minus_V": {"type": "number", "example": 0.6},
                "d_plus_V": {"type": "number", "example": 0.6},
                "runtime": {"type": "string", "example": "00:12:30"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "UD18 Telemetry API",
	Description:      "Capture control and telemetry access for a UD18 USB power meter.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
