// Package docs registra el documento Swagger servido en /swagger/*. Mismo formato que genera swag init.
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
        "/public/shares/{token}": {
            "get": {
                "description": "Resuelve un link público. Token inexistente, revocado o expirado responden igual (404).",
                "produces": ["application/json"],
                "tags": ["public"],
                "summary": "Ver datos compartidos por link",
                "parameters": [
                    {"type": "string", "description": "Token del link", "name": "token", "in": "path", "required": true},
                    {"type": "string", "description": "Categorías pedidas (CSV). Sólo reduce el alcance.", "name": "include", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date_from", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date_to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shareview.ShareView"}},
                    "400": {"description": "invalid scope", "schema": {"type": "string"}},
                    "404": {"description": "this link is no longer available", "schema": {"type": "string"}},
                    "503": {"description": "temporarily unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/horses/{horseID}/shares": {
            "post": {
                "description": "Emite un token de acceso de sólo lectura. El token se devuelve una única vez.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["shares"],
                "summary": "Crear link público de un caballo",
                "parameters": [
                    {"type": "string", "description": "ID del caballo", "name": "horseID", "in": "path", "required": true},
                    {"description": "pack_key o scope", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/shares.createShareRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/shares.issuedResponse"}},
                    "400": {"description": "invalid scope / invalid date range", "schema": {"type": "string"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "404": {"description": "horse or pack not found", "schema": {"type": "string"}}
                }
            }
        },
        "/connections": {
            "post": {
                "description": "Crea una conexión pending y devuelve el token de handshake (una única vez).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["connections"],
                "summary": "Solicitar conexión con otro tenant",
                "parameters": [
                    {"description": "Conexión", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/connections.createConnectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/connections.issuedResponse"}},
                    "400": {"description": "validación", "schema": {"type": "string"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "409": {"description": "duplicate active connection", "schema": {"type": "string"}}
                }
            }
        },
        "/connections/accept": {
            "post": {
                "description": "Sólo un manager del tenant destinatario. pending -> accepted; cualquier otro estado es 409.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["connections"],
                "summary": "Aceptar conexión",
                "parameters": [
                    {"description": "Token de handshake", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/connections.handshakeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/connections.connectionResponse"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "404": {"description": "not found", "schema": {"type": "string"}},
                    "409": {"description": "invalid state", "schema": {"type": "string"}}
                }
            }
        },
        "/connections/{connectionID}/grants": {
            "post": {
                "description": "El grantor es el lado del actor salvo que se indique. La conexión debe estar accepted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["consents"],
                "summary": "Crear grant de consentimiento",
                "parameters": [
                    {"type": "string", "description": "ID de la conexión", "name": "connectionID", "in": "path", "required": true},
                    {"description": "Grant", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/consents.createGrantRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/consents.grantResponse"}},
                    "400": {"description": "validación", "schema": {"type": "string"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "409": {"description": "connection not accepted", "schema": {"type": "string"}}
                }
            }
        },
        "/grants/{grantID}/horses/{horseID}/view": {
            "get": {
                "produces": ["application/json"],
                "tags": ["consents"],
                "summary": "Ver datos de un caballo a través de un grant",
                "parameters": [
                    {"type": "string", "description": "ID del grant", "name": "grantID", "in": "path", "required": true},
                    {"type": "string", "description": "ID del caballo", "name": "horseID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shareview.GrantView"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "404": {"description": "not found", "schema": {"type": "string"}},
                    "409": {"description": "grant not effective", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "scope.Descriptor": {
            "type": "object",
            "properties": {
                "include_veterinary": {"type": "boolean"},
                "include_laboratory": {"type": "boolean"},
                "include_files": {"type": "boolean"},
                "date_from": {"type": "string"},
                "date_to": {"type": "string"}
            }
        },
        "shareview.RecordView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "category": {"type": "string"},
                "kind": {"type": "string"},
                "occurred_at": {"type": "string"},
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "file_name": {"type": "string"},
                "content_type": {"type": "string"}
            }
        },
        "shareview.Projection": {
            "type": "object",
            "properties": {
                "horse": {"type": "object"},
                "veterinary": {"type": "array", "items": {"$ref": "#/definitions/shareview.RecordView"}},
                "laboratory": {"type": "array", "items": {"$ref": "#/definitions/shareview.RecordView"}},
                "files": {"type": "array", "items": {"$ref": "#/definitions/shareview.RecordView"}}
            }
        },
        "shareview.ShareView": {
            "type": "object",
            "properties": {
                "scope": {"$ref": "#/definitions/scope.Descriptor"},
                "expires_at": {"type": "string"},
                "data": {"$ref": "#/definitions/shareview.Projection"}
            }
        },
        "shareview.GrantView": {
            "type": "object",
            "properties": {
                "grant_id": {"type": "string"},
                "connection_id": {"type": "string"},
                "forward_only": {"type": "boolean"},
                "scope": {"$ref": "#/definitions/scope.Descriptor"},
                "data": {"$ref": "#/definitions/shareview.Projection"}
            }
        },
        "shares.createShareRequest": {
            "type": "object",
            "properties": {
                "tenant_id": {"type": "string"},
                "pack_key": {"type": "string"},
                "scope": {"$ref": "#/definitions/scope.Descriptor"},
                "date_from": {"type": "string"},
                "date_to": {"type": "string"},
                "expires_at": {"type": "string"},
                "recipient_email": {"type": "string"}
            }
        },
        "shares.issuedResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "horse_id": {"type": "string"},
                "pack_key": {"type": "string"},
                "state": {"type": "string"},
                "effective": {"type": "boolean"},
                "token": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "connections.createConnectionRequest": {
            "type": "object",
            "properties": {
                "initiator_tenant_id": {"type": "string"},
                "recipient_tenant_id": {"type": "string"},
                "recipient_email": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "connections.handshakeRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {
                "token": {"type": "string"},
                "tenant_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "connections.connectionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "initiator_tenant_id": {"type": "string"},
                "recipient_tenant_id": {"type": "string"},
                "type": {"type": "string"},
                "state": {"type": "string"},
                "reject_reason": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "connections.issuedResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "state": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "consents.createGrantRequest": {
            "type": "object",
            "required": ["resource_type"],
            "properties": {
                "grantor_tenant_id": {"type": "string"},
                "resource_type": {"type": "string", "enum": ["veterinary", "laboratory", "files"]},
                "access_level": {"type": "string", "enum": ["read", "write"]},
                "date_from": {"type": "string"},
                "date_to": {"type": "string"},
                "forward_only": {"type": "boolean"}
            }
        },
        "consents.grantResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "connection_id": {"type": "string"},
                "grantor_tenant_id": {"type": "string"},
                "grantee_tenant_id": {"type": "string"},
                "resource_type": {"type": "string"},
                "access_level": {"type": "string"},
                "forward_only": {"type": "boolean"},
                "state": {"type": "string"},
                "from_preset": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo se puede ajustar desde main (Host, BasePath).
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stable Sharing API",
	Description:      "Links públicos y consentimientos B2B sobre el historial de caballos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
