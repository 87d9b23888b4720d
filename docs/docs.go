// Package docs registers the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/lexsearch-core/main.go -o docs
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
        "/search": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search documents",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RetrievalResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Search engine unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/search/context": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Retrieve generation context",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ContextResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/search/debug": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Debug a search",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RetrievalDebug"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Worker status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.WorkerStatus"}}
                }
            }
        },
        "/admin/jobs": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Start an index job",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.TriggerJobRequest"}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/domain.IndexJob"}},
                    "409": {"description": "A job is already running", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/jobs/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Cancel the active job",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatusResponse"}},
                    "404": {"description": "Job not found or already completed", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/schedules": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Schedules"],
                "summary": "List schedules",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Schedule"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Schedules"],
                "summary": "Create a schedule",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.CreateScheduleRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Schedule"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Name already taken", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/schedules/preview": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Schedules"],
                "summary": "Preview a cron expression",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.PreviewScheduleRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.PreviewScheduleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/schedules/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Schedules"],
                "summary": "Get a schedule",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Schedule"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Schedules"],
                "summary": "Update a schedule",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Schedule"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Schedules"],
                "summary": "Delete a schedule",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/schedules/{id}/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Schedules"],
                "summary": "Schedule runtime status",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ScheduleStatus"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/indexes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Indexes"],
                "summary": "List index definitions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.SearchIndex"}}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Indexes"],
                "summary": "Create or update an index definition",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.SaveIndexRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SearchIndex"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/indexes/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Indexes"],
                "summary": "Index statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.IndexStatus"}}}
                }
            }
        },
        "/admin/indexes/{name}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Indexes"],
                "summary": "Delete an index definition",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/documents": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "List documents",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "updated_from", "in": "query"},
                    {"type": "string", "name": "updated_to", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/driving.DocumentPage"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Create a document",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.CreateDocumentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Document"}}
                }
            }
        },
        "/admin/documents/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get a document",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Update a document",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.UpdateDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Document"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Documents"],
                "summary": "Delete a document",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "503": {"description": "Retraction failed; the record is kept", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/admin/documents/{id}/reindex": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Reindex a document",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/http.ReindexResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string", "example": "invalid request body"}}},
        "http.StatusResponse": {"type": "object", "properties": {"status": {"type": "string", "example": "ok"}}},
        "http.SearchRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string", "example": "Kündigungsfrist Mietvertrag"},
                "scopes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "http.ContextResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.ContextDocument"}}
            }
        },
        "http.TriggerJobRequest": {"type": "object", "properties": {"type": {"type": "string", "enum": ["full", "incremental"]}}},
        "http.PreviewScheduleRequest": {
            "type": "object",
            "properties": {
                "cron_expression": {"type": "string", "example": "0 3 * * *"},
                "count": {"type": "integer", "example": 5},
                "from": {"type": "string", "format": "date-time"}
            }
        },
        "http.PreviewScheduleResponse": {
            "type": "object",
            "properties": {
                "cron_expression": {"type": "string"},
                "description": {"type": "string"},
                "next_runs": {"type": "array", "items": {"type": "string", "format": "date-time"}}
            }
        },
        "http.ReindexResponse": {
            "type": "object",
            "properties": {
                "document_id": {"type": "string"},
                "status": {"type": "string", "enum": ["started", "queued"]},
                "job": {"$ref": "#/definitions/domain.IndexJob"}
            }
        },
        "domain.Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true},
                "status": {"type": "string", "enum": ["pending", "indexed", "failed", "skipped"]},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "last_indexed": {"type": "string", "format": "date-time"}
            }
        },
        "domain.RetrievedDocument": {
            "type": "object",
            "properties": {
                "document": {"$ref": "#/definitions/domain.Document"},
                "score": {"type": "number"},
                "highlight": {"type": "string"},
                "index": {"type": "string"}
            }
        },
        "domain.RetrievalResult": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.RetrievedDocument"}},
                "dropped": {"type": "integer"}
            }
        },
        "domain.RetrievalDebug": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.RetrievedDocument"}},
                "dropped": {"type": "integer"},
                "filter": {"type": "string"},
                "indexes": {"type": "array", "items": {"type": "string"}},
                "estimated_total_hits": {"type": "integer"},
                "search_time": {"type": "integer", "example": 1500000},
                "store_time": {"type": "integer", "example": 1500000}
            }
        },
        "domain.ContextDocument": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "path": {"type": "string"},
                "content": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "domain.IndexJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "schedule_id": {"type": "string"},
                "type": {"type": "string", "enum": ["full", "incremental"]},
                "status": {"type": "string", "enum": ["pending", "running", "completed", "failed", "cancelled"]},
                "started_at": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"},
                "progress": {"type": "number"},
                "total_items": {"type": "integer"},
                "processed": {"type": "integer"},
                "error": {"type": "string"},
                "schedule": {"$ref": "#/definitions/domain.Schedule"}
            }
        },
        "domain.Schedule": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "cron_expression": {"type": "string"},
                "type": {"type": "string", "enum": ["full", "incremental"]},
                "enabled": {"type": "boolean"},
                "last_run": {"type": "string", "format": "date-time"},
                "next_run": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.ScheduleStatus": {
            "type": "object",
            "properties": {
                "schedule": {"$ref": "#/definitions/domain.Schedule"},
                "next_run": {"type": "string", "format": "date-time"},
                "last_job": {"$ref": "#/definitions/domain.IndexJob"},
                "is_running": {"type": "boolean"}
            }
        },
        "domain.FilterRule": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "operator": {"type": "string", "enum": ["equals", "contains", "startsWith", "endsWith"]},
                "value": {"type": "string"}
            }
        },
        "domain.SearchIndex": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "enabled": {"type": "boolean"},
                "weight": {"type": "number"},
                "filters": {"type": "array", "items": {"$ref": "#/definitions/domain.FilterRule"}},
                "last_indexed": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.IndexStatus": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "number_of_documents": {"type": "integer"},
                "is_indexing": {"type": "boolean"},
                "last_update": {"type": "string", "format": "date-time"},
                "error": {"type": "string"}
            }
        },
        "domain.WorkerStatus": {
            "type": "object",
            "properties": {
                "is_running": {"type": "boolean"},
                "state": {"type": "string", "enum": ["idle", "checking", "executing"]},
                "active_job": {"$ref": "#/definitions/domain.IndexJob"},
                "recent_jobs": {"type": "array", "items": {"$ref": "#/definitions/domain.IndexJob"}},
                "index_stats": {"type": "array", "items": {"$ref": "#/definitions/domain.IndexStatus"}}
            }
        },
        "driving.CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "cron_expression": {"type": "string"},
                "type": {"type": "string", "enum": ["full", "incremental"]},
                "enabled": {"type": "boolean"}
            }
        },
        "driving.UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "cron_expression": {"type": "string"},
                "type": {"type": "string", "enum": ["full", "incremental"]},
                "enabled": {"type": "boolean"}
            }
        },
        "driving.SaveIndexRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "enabled": {"type": "boolean"},
                "weight": {"type": "number"},
                "filters": {"type": "array", "items": {"$ref": "#/definitions/domain.FilterRule"}}
            }
        },
        "driving.CreateDocumentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true}
            }
        },
        "driving.UpdateDocumentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true}
            }
        },
        "driving.DocumentPage": {
            "type": "object",
            "properties": {
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.Document"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Lexsearch Core API",
	Description:      "Legal document indexing and retrieval API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
