package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Safeguard API",
        "description": "Safeguarding incident reporting service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Incidents", "description": "Incident reports and aggregates"},
        {"name": "Students", "description": "Student directory"},
        {"name": "Lookups", "description": "Reference data for the incident form"},
        {"name": "Notifications", "description": "Staff incident notifications"},
        {"name": "Attachments", "description": "Evidence files"},
        {"name": "Exports", "description": "Rendered incident documents"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens rotated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token expired or revoked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the current refresh token",
                "responses": {
                    "204": {"description": "Revoked"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "Profile", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/incidents": {
            "get": {
                "tags": ["Incidents"],
                "summary": "List incident reports",
                "parameters": [
                    {"name": "category_id", "in": "query", "type": "integer"},
                    {"name": "status_id", "in": "query", "type": "integer"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "urgent", "in": "query", "type": "boolean"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Incident summaries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Incidents"],
                "summary": "Submit an incident report",
                "description": "Persists the incident with linked students, body map markers and staff notifications in one transaction. Omitted fields fall back to configured defaults.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIncidentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Report created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/incidents/{id}": {
            "get": {
                "tags": ["Incidents"],
                "summary": "Get the full incident aggregate",
                "description": "Child sections that fail to load degrade to empty lists and are named in meta.degraded_sections.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Incident aggregate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/incidents/{id}/attachments": {
            "post": {
                "tags": ["Attachments"],
                "summary": "Upload an evidence file",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Attachment stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported file type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/incidents/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an incident export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Incident not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/exports": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export via a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document bytes"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attachments/{id}/url": {
            "get": {
                "tags": ["Attachments"],
                "summary": "Issue a fresh signed download URL",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Signed URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Attachment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/attachments": {
            "get": {
                "tags": ["Attachments"],
                "summary": "Download an attachment via a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File bytes"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "year_group", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student with emergency contacts",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Student detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lookups/categories": {
            "get": {
                "tags": ["Lookups"],
                "summary": "List incident categories",
                "responses": {
                    "200": {"description": "Reference items", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lookups/locations": {
            "get": {
                "tags": ["Lookups"],
                "summary": "List incident locations",
                "responses": {
                    "200": {"description": "Reference items", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lookups/statuses": {
            "get": {
                "tags": ["Lookups"],
                "summary": "List incident statuses",
                "responses": {
                    "200": {"description": "Reference items", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "parameters": [
                    {"name": "unviewed", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Notifications", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}/viewed": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as viewed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Notification", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Belongs to another user", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "CreateIncidentRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "category_id": {"type": "integer"},
                "location_id": {"type": "integer"},
                "incident_date": {"type": "string", "example": "2026-03-14"},
                "incident_time": {"type": "string", "example": "12:00:00"},
                "details": {"type": "string"},
                "witness_id": {"type": "integer"},
                "actions_taken": {"type": "string"},
                "follow_up_required": {"type": "boolean"},
                "is_confidential": {"type": "boolean"},
                "urgent": {"type": "boolean"},
                "created_by": {"type": "integer"},
                "student_id": {"type": "string"},
                "primaryStudent": {"type": "string"},
                "linkedStudents": {"type": "array", "items": {"type": "string"}},
                "bodyMapMarkers": {"type": "array", "items": {"$ref": "#/definitions/BodyMapMarker"}},
                "notifyStaff": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "BodyMapMarker": {
            "type": "object",
            "properties": {
                "view": {"type": "string", "enum": ["front", "back"]},
                "x": {"type": "number"},
                "y": {"type": "number"},
                "note": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["pdf", "csv"]}
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
