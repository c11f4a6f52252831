// Package docs registers the OpenAPI document served at /swagger/*.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Logs a user in with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/http.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/surveys": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["surveys"],
                "summary": "Lists surveys, newest first",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["surveys"],
                "summary": "Creates a survey",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/surveys/{id}/answers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["answers"],
                "summary": "Records one answer",
                "parameters": [
                    {"type": "string", "description": "Survey ID", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "answer", "required": true, "schema": {"$ref": "#/definitions/http.answerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/answers/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["answers"],
                "summary": "Stores answers collected offline",
                "description": "All-or-nothing. Answers whose id is already stored are skipped, so a batch may be resent safely.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.batchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/reports/{id}/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Exports a report as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "csv or excel", "name": "format", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "http.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "http.loginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "http.tokenResponse": {
            "type": "object",
            "properties": {"access_token": {"type": "string"}, "refresh_token": {"type": "string"}}
        },
        "http.answerRequest": {
            "type": "object",
            "properties": {"question_id": {"type": "string"}, "answer": {"type": "string"}}
        },
        "http.batchResponse": {
            "type": "object",
            "properties": {"synced": {"type": "integer"}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "fieldsurvey API",
	Description:      "Survey management, offline answer collection and reporting.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
