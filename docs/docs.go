package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Состояние сервиса",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/api/v1/map/features": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Map"],
                "summary": "Проекция пакета записей в источник карты",
                "parameters": [
                    {"description": "Пакет записей", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.FeaturesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/map/nearby": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Map"],
                "summary": "Здания рядом с точкой",
                "parameters": [
                    {"type": "number", "description": "Широта", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "description": "Долгота", "name": "lng", "in": "query", "required": true},
                    {"type": "number", "default": 5000, "description": "Радиус в метрах", "name": "radius_m", "in": "query"},
                    {"type": "string", "description": "Фильтр по названию", "name": "q", "in": "query"},
                    {"type": "string", "description": "UUID пользователя", "name": "user_id", "in": "query"},
                    {"type": "boolean", "description": "Показывать сохранённых кандидатов", "name": "show_saved_candidates", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/map/clusters": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Map"],
                "summary": "Клиентская кластеризация пакета",
                "parameters": [
                    {"description": "Пакет, область и зум", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ClustersRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/map/actions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Map"],
                "summary": "Действие с карты",
                "parameters": [
                    {"description": "Действие", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ActionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Bounds": {
            "type": "object",
            "properties": {
                "north": {"type": "number"},
                "south": {"type": "number"},
                "east": {"type": "number"},
                "west": {"type": "number"}
            }
        },
        "domain.Record": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "is_cluster": {"type": "boolean"},
                "count": {"type": "integer"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "location_precision": {"type": "string", "enum": ["exact", "approximate"]},
                "name": {"type": "string"},
                "image_url": {"type": "string"},
                "status": {"type": "string", "enum": ["visited", "pending"]},
                "color": {"type": "string"},
                "note": {"type": "string"},
                "is_marker": {"type": "boolean"},
                "is_candidate": {"type": "boolean"},
                "is_dimmed": {"type": "boolean"},
                "social_context": {"type": "boolean"},
                "building": {"type": "object"}
            }
        },
        "dto.FeaturesRequest": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/domain.Record"}},
                "show_saved_candidates": {"type": "boolean"}
            }
        },
        "dto.ClustersRequest": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/domain.Record"}},
                "bounds": {"$ref": "#/definitions/domain.Bounds"},
                "zoom": {"type": "number"}
            }
        },
        "dto.ActionRequest": {
            "type": "object",
            "required": ["action", "id", "user_id"],
            "properties": {
                "action": {"type": "string", "enum": ["add_candidate", "hide_candidate", "remove_item", "remove_marker", "update_marker_note", "save", "visit"]},
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "collection_id": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "services": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object"}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.AppError"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Building Discovery Map API",
	Description:      "Интерактивная карта зданий: проекция пакетов, поиск рядом, кластеризация и действия из подсказок.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
