package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gatherly API",
        "description": "Group scheduling and conflict-resolution engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Events", "description": "Time recommendations for pending and conflicting events"},
        {"name": "Schedules", "description": "Conflict-free combination generation"},
        {"name": "Travel", "description": "Travel-aware visit scheduling"},
        {"name": "Coordination", "description": "Swap/booking requests and activity log"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/events/recommend-alternative": {
            "post": {
                "tags": ["Events"],
                "summary": "Recommend free slots near a pending event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AlternativeTimeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/recommend-reschedule": {
            "post": {
                "tags": ["Events"],
                "summary": "Recommend relocation slots for a conflicting event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleTimeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/confirm-reschedule": {
            "post": {
                "tags": ["Events"],
                "summary": "Commit a recommended slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmRescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/combinations": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate conflict-free schedule combinations",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CombinationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}/travel-plan": {
            "post": {
                "tags": ["Travel"],
                "summary": "Run the travel scheduler for a room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TravelPlanBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}/travel-plan/export": {
            "get": {
                "tags": ["Travel"],
                "summary": "Export the room's current travel plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/rooms/{id}/requests": {
            "get": {
                "tags": ["Coordination"],
                "summary": "List coordination requests",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Coordination"],
                "summary": "Open a coordination request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCoordinationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}/requests/{requestId}/resolve": {
            "post": {
                "tags": ["Coordination"],
                "summary": "Approve or reject a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "requestId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveCoordinationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}/requests/{requestId}": {
            "delete": {
                "tags": ["Coordination"],
                "summary": "Withdraw or clean up a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "requestId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rooms/{id}/activity": {
            "get": {
                "tags": ["Coordination"],
                "summary": "List the room's activity log",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}/carryover": {
            "get": {
                "tags": ["Coordination"],
                "summary": "Report carry-over balances and long-term flags",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeWindow": {
            "type": "object",
            "properties": {
                "days": {"type": "array", "items": {"type": "string"}},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "date": {"type": "string"}
            },
            "required": ["startTime", "endTime"]
        },
        "Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"}
            },
            "required": ["startTime", "endTime"]
        },
        "AlternativeTimeRequest": {
            "type": "object",
            "properties": {
                "pendingEvent": {"$ref": "#/definitions/Event"},
                "existingEvents": {"type": "array", "items": {"$ref": "#/definitions/Event"}}
            },
            "required": ["pendingEvent"]
        },
        "RescheduleTimeRequest": {
            "type": "object",
            "properties": {
                "conflictingEvent": {"$ref": "#/definitions/Event"},
                "existingEvents": {"type": "array", "items": {"$ref": "#/definitions/Event"}}
            },
            "required": ["conflictingEvent"]
        },
        "ConfirmRescheduleRequest": {
            "type": "object",
            "properties": {
                "eventId": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"}
            },
            "required": ["eventId", "startTime", "endTime"]
        },
        "CombinationRequest": {
            "type": "object",
            "properties": {
                "schedules": {"type": "array", "items": {"type": "object"}},
                "maxCombinations": {"type": "integer"},
                "maxAttempts": {"type": "integer"}
            },
            "required": ["schedules"]
        },
        "TravelPlanBody": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "format": "date-time"}
            },
            "required": ["startDate"]
        },
        "CreateCoordinationRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["booking", "slot_swap", "conflict"]},
                "timeSlot": {"$ref": "#/definitions/TimeWindow"},
                "targetUser": {"type": "string"},
                "message": {"type": "string"}
            },
            "required": ["type", "timeSlot"]
        },
        "ResolveCoordinationRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["approved", "rejected"]}
            },
            "required": ["action"]
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
