// Package docs holds the OpenAPI description served at /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/discussions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["discussions"],
                "summary": "List discussions",
                "parameters": [
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "string", "name": "tag", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "creator_id", "in": "query"},
                    {"type": "string", "name": "creator_role", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "boolean", "name": "pinned_only", "in": "query"},
                    {"type": "boolean", "name": "unread_only", "in": "query"},
                    {"type": "boolean", "name": "pinned_first", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DiscussionPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["discussions"],
                "summary": "Create a discussion",
                "parameters": [
                    {"description": "Discussion", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.createDiscussionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.DiscussionItem"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/discussions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["discussions"],
                "summary": "Get a discussion",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DiscussionItem"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["discussions"],
                "summary": "Edit a discussion",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "Changes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.updateDiscussionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DiscussionItem"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["discussions"],
                "summary": "Delete a discussion",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/discussions/{id}/archive": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["discussions"],
                "summary": "Archive a discussion",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DiscussionItem"}}}
            }
        },
        "/discussions/{id}/view": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["discussions"],
                "summary": "Record a view",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/discussions/{id}/pin": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["discussions"],
                "summary": "Personal pin status",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/discussions/{id}/pin/toggle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["discussions"],
                "summary": "Toggle a personal pin",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/discussions/{id}/replies": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["replies"],
                "summary": "List top-level replies",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ReplyPage"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["replies"],
                "summary": "Reply to a discussion",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "Reply", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.createReplyRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.ReplyItem"}}}
            }
        },
        "/replies/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["replies"],
                "summary": "Get a reply",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ReplyItem"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["replies"],
                "summary": "Edit a reply",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ReplyItem"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["replies"],
                "summary": "Delete a reply and its subtree",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/replies/{id}/replies": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["replies"],
                "summary": "List direct children of a reply",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ReplyPage"}}}
            }
        },
        "/likes/{entityType}/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["likes"],
                "summary": "Like status for the caller",
                "parameters": [
                    {"type": "string", "name": "entityType", "in": "path", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LikeState"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["likes"],
                "summary": "Like an entity",
                "parameters": [
                    {"type": "string", "name": "entityType", "in": "path", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LikeState"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["likes"],
                "summary": "Remove a like",
                "parameters": [
                    {"type": "string", "name": "entityType", "in": "path", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LikeState"}}}
            }
        },
        "/likes/{entityType}/{id}/toggle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["likes"],
                "summary": "Toggle a like",
                "parameters": [
                    {"type": "string", "name": "entityType", "in": "path", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LikeState"}}}
            }
        },
        "/likes/{entityType}/{id}/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["likes"],
                "summary": "Who liked an entity",
                "parameters": [
                    {"type": "string", "name": "entityType", "in": "path", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["moderation"],
                "summary": "List moderation reports",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "entity_type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["moderation"],
                "summary": "Report a discussion or reply",
                "parameters": [
                    {"description": "Report", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.reportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/reports/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["moderation"],
                "summary": "Review a report",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "Review", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.reviewRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/unread": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["me"],
                "summary": "Unread counts for the caller",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/mentions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["me"],
                "summary": "Mentions of the caller",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/members/mentionable": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["me"],
                "summary": "Members matching a mention prefix",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "models.UserSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "handle": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "image": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "models.DiscussionItem": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "type": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "reply_count": {"type": "integer"},
                "view_count": {"type": "integer"},
                "like_count": {"type": "integer"},
                "meeting_link": {"type": "string"},
                "meeting_platform": {"type": "string"},
                "meeting_scheduled_at": {"type": "string"},
                "meeting_duration": {"type": "integer"},
                "last_activity_at": {"type": "string"},
                "created_at": {"type": "string"},
                "creator": {"$ref": "#/definitions/models.UserSummary"},
                "pinned": {"type": "boolean"},
                "liked": {"type": "boolean"},
                "unread": {"type": "boolean"}
            }
        },
        "models.DiscussionPage": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.DiscussionItem"}},
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "models.ReplyItem": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "discussion_id": {"type": "integer"},
                "parent_reply_id": {"type": "integer"},
                "content": {"type": "string"},
                "status": {"type": "string"},
                "like_count": {"type": "integer"},
                "sub_reply_count": {"type": "integer"},
                "created_at": {"type": "string"},
                "creator": {"$ref": "#/definitions/models.UserSummary"},
                "liked": {"type": "boolean"},
                "unread": {"type": "boolean"}
            }
        },
        "models.ReplyPage": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.ReplyItem"}},
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "service.LikeState": {
            "type": "object",
            "properties": {
                "liked": {"type": "boolean"},
                "like_count": {"type": "integer"}
            }
        },
        "server.createDiscussionRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "body": {"type": "string"},
                "type": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "meeting_link": {"type": "string"},
                "meeting_platform": {"type": "string"},
                "meeting_scheduled_at": {"type": "string"},
                "meeting_duration": {"type": "integer"}
            }
        },
        "server.updateDiscussionRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "body": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.createReplyRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "parent_reply_id": {"type": "integer"}
            }
        },
        "server.reportRequest": {
            "type": "object",
            "properties": {
                "entity_type": {"type": "string"},
                "entity_id": {"type": "integer"},
                "report_type": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "server.reviewRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "note": {"type": "string"},
                "restore": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8380",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Agora Forum API",
	Description:      "Multi-tenant discussion forum: discussions, reply trees, likes, pins, views, mentions and moderation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
