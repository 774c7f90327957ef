// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package docs registers the Fleetwatch OpenAPI document with swag so the
// Swagger UI at /swagger/ can serve it. Keep it in step with the marine
// handlers in internal/api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/tomtom215/fleetwatch"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/marine/fleet-vessels": {
            "get": {
                "description": "Every persisted fleet vessel, with the live cached position laid over the stored one when known",
                "produces": ["application/json"],
                "tags": ["marine"],
                "summary": "List fleet vessels",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.FleetVessel"}}
                    }
                }
            }
        },
        "/api/marine/vessel-positions": {
            "get": {
                "description": "Cached positions in a viewport (showAll) or for specific identifiers",
                "produces": ["application/json"],
                "tags": ["marine"],
                "summary": "Query cached vessel positions",
                "parameters": [
                    {"type": "boolean", "description": "Return every cached position inside the bounds", "name": "showAll", "in": "query"},
                    {"type": "number", "description": "Northern bound", "name": "north", "in": "query"},
                    {"type": "number", "description": "Southern bound", "name": "south", "in": "query"},
                    {"type": "number", "description": "Eastern bound", "name": "east", "in": "query"},
                    {"type": "number", "description": "Western bound", "name": "west", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Vessel identifiers", "name": "mmsi", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.VesselPosition"}}
                    },
                    "400": {"description": "Invalid bounds", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/marine/vessel-details/{identifier}": {
            "get": {
                "description": "Registry details for a vessel. Unknown vessels get default details rather than 404",
                "produces": ["application/json"],
                "tags": ["marine"],
                "summary": "Get vessel details",
                "parameters": [
                    {"type": "string", "description": "Vessel MMSI", "name": "identifier", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.VesselDetails"}},
                    "400": {"description": "Missing identifier", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/marine/search-vessels": {
            "get": {
                "description": "Upstream registry search by name or identifier",
                "produces": ["application/json"],
                "tags": ["marine"],
                "summary": "Search vessels",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "query", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.VesselDetails"}}
                    },
                    "400": {"description": "Missing query", "schema": {"$ref": "#/definitions/api.SearchErrorResponse"}},
                    "503": {"description": "Upstream not configured or unavailable", "schema": {"$ref": "#/definitions/api.SearchErrorResponse"}}
                }
            }
        },
        "/api/marine/update-vessel-position": {
            "post": {
                "description": "Manual position correction for a fleet vessel identified by MMSI or vessel id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["marine"],
                "summary": "Update a vessel position",
                "parameters": [
                    {"description": "Position correction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PositionUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PositionUpdateResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Unknown vessel", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/marine/live": {
            "get": {
                "description": "WebSocket upgrade. Streams position messages as they are normalized",
                "tags": ["marine"],
                "summary": "Live position stream",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Not ready"}}
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "api.SearchErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "models.VesselPosition": {
            "type": "object",
            "properties": {
                "mmsi": {"type": "string", "example": "366998410"},
                "vesselId": {"type": "integer"},
                "name": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "speed": {"type": "number", "description": "Knots over ground"},
                "heading": {"type": "number", "description": "Degrees 0-359"},
                "timestamp": {"type": "string", "example": "2026-05-01T12:00:00.000Z"}
            }
        },
        "models.Vessel": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "mmsi": {"type": "string"},
                "type": {"type": "string"},
                "latitude": {"type": "number", "x-nullable": true},
                "longitude": {"type": "number", "x-nullable": true},
                "heading": {"type": "number", "x-nullable": true},
                "speed": {"type": "number", "x-nullable": true},
                "lastPositionUpdate": {"type": "string", "format": "date-time", "x-nullable": true}
            }
        },
        "models.FleetVessel": {
            "type": "object",
            "allOf": [{"$ref": "#/definitions/models.Vessel"}],
            "properties": {
                "live": {"type": "boolean"},
                "liveTimestamp": {"type": "string"}
            }
        },
        "models.VesselDetails": {
            "type": "object",
            "properties": {
                "mmsi": {"type": "string"},
                "name": {"type": "string"},
                "imo": {"type": "string"},
                "callSign": {"type": "string"},
                "type": {"type": "string"},
                "flag": {"type": "string"},
                "length": {"type": "number"},
                "width": {"type": "number"},
                "destination": {"type": "string"},
                "eta": {"type": "string"},
                "status": {"type": "string"},
                "position": {"$ref": "#/definitions/models.VesselPosition"}
            }
        },
        "models.PositionUpdateRequest": {
            "type": "object",
            "required": ["latitude", "longitude"],
            "properties": {
                "mmsi": {"type": "string", "description": "String or number. Required without vesselId"},
                "vesselId": {"type": "integer", "description": "Required without mmsi"},
                "latitude": {"type": "number", "minimum": -90, "maximum": 90},
                "longitude": {"type": "number", "minimum": -180, "maximum": 180},
                "heading": {"type": "number", "minimum": 0, "maximum": 360, "exclusiveMaximum": true},
                "speed": {"type": "number", "minimum": 0}
            }
        },
        "models.PositionUpdateResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "vessel": {"$ref": "#/definitions/models.Vessel"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Fleetwatch API",
	Description:      "Live AIS positions for a yacht fleet, the persisted vessel store and a live WebSocket stream.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
