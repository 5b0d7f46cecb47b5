package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "College Timetable API",
        "description": "Generates weekly college timetables from teachers, rooms, courses and teacher preferences.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Infrastructure", "description": "Teachers, rooms, courses and the college day"},
        {"name": "Preferences", "description": "Teacher availability and limits"},
        {"name": "Timetables", "description": "Generation runs and their results"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Dependencies reachable", "schema": {"$ref": "#/definitions/HealthResponse"}},
                    "503": {"description": "A dependency failed", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Exposition format"}}
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Generation and cache counters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/infrastructure": {
            "get": {
                "tags": ["Infrastructure"],
                "summary": "Get the college infrastructure",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Infrastructure"],
                "summary": "Replace the college infrastructure",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/InfrastructureRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Course configuration cannot be scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/infrastructure/time-slots": {
            "get": {
                "tags": ["Infrastructure"],
                "summary": "List the daily time slots",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/infrastructure/teaching-load": {
            "get": {
                "tags": ["Infrastructure"],
                "summary": "Weekly teaching load per teacher",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/teachers/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "List stored teacher preferences",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/teachers/{name}/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get a teacher's preferences",
                "description": "Teachers without stored preferences get the defaults.",
                "parameters": [
                    {"in": "path", "name": "name", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Update a teacher's preferences",
                "description": "Omitted fields keep their stored value.",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "name", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TeacherPreferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate timetables",
                "description": "Runs one generation pass for every course. Seeded requests with an unchanged input are served from cache. An empty body uses the stored infrastructure.",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Course configuration cannot be scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Generation disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/jobs": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Queue a timetable generation",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued; Location points at the run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full or generation disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/runs": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List generation runs",
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["PENDING", "RUNNING", "COMPLETED", "FAILED"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "page_size", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/timetables/runs/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a generation run with its result",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/runs/{id}/satisfaction": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Grade a run against teacher preferences",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run not completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeSettings": {
            "type": "object",
            "properties": {
                "collegeStartTime": {"type": "string", "example": "09:00"},
                "collegeEndTime": {"type": "string", "example": "16:00"},
                "recessStartTime": {"type": "string", "example": "12:00"},
                "recessDuration": {"type": "integer", "example": 60},
                "lectureDuration": {"type": "integer", "example": 60}
            }
        },
        "Subject": {
            "type": "object",
            "required": ["name", "teacher"],
            "properties": {
                "name": {"type": "string"},
                "teacher": {"type": "string"},
                "lecturesPerWeek": {"type": "integer"},
                "requiresLab": {"type": "boolean"},
                "labsPerWeek": {"type": "integer"},
                "labRoomNo": {"type": "string"},
                "isElective": {"type": "boolean"},
                "electiveSubjectName": {"type": "string"},
                "electiveTeacher": {"type": "string"},
                "specialization": {"type": "string"}
            }
        },
        "Course": {
            "type": "object",
            "required": ["id", "branch"],
            "properties": {
                "id": {"type": "string"},
                "branch": {"type": "string"},
                "semester": {"type": "string"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "batches": {"type": "array", "items": {"type": "string"}}
            }
        },
        "InfrastructureRequest": {
            "type": "object",
            "required": ["allTeachers", "allRooms", "courses"],
            "properties": {
                "allTeachers": {"type": "array", "items": {"type": "string"}},
                "allRooms": {"type": "array", "items": {"type": "string"}, "example": ["101 (C)", "Lab1 (L)"]},
                "specializations": {"type": "array", "items": {"type": "string"}},
                "timeSettings": {"$ref": "#/definitions/TimeSettings"},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/Course"}},
                "workingDays": {"type": "array", "items": {"type": "string"}, "example": ["Monday", "Tuesday"]}
            }
        },
        "TeacherPreferenceRequest": {
            "type": "object",
            "properties": {
                "preferredSlots": {"type": "array", "items": {"type": "string"}, "example": ["Monday 09:00"]},
                "blockedSlots": {"type": "array", "items": {"type": "string"}},
                "preferredDays": {"type": "array", "items": {"type": "string"}},
                "maxConsecutiveClasses": {"type": "integer"},
                "maxDailyClasses": {"type": "integer"},
                "maxWeeklyHours": {"type": "integer"},
                "subjectPreferences": {"type": "object", "additionalProperties": {"type": "integer"}},
                "enabled": {"type": "boolean"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "infrastructure": {"$ref": "#/definitions/InfrastructureRequest"},
                "seed": {"type": "integer", "format": "int64"},
                "workingDays": {"type": "integer", "enum": [5, 6]}
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "timestamp": {"type": "string", "format": "date-time"}
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
