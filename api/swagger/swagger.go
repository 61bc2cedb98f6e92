package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable Engine",
        "description": "Constraint-based weekly timetable generation for schools",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedule", "description": "Timetable generation and feasibility checks"}
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
        "/api/v1/schedule/generate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Generate a conflict-free weekly timetable",
                "description": "Solves the school configuration into per-class schedule entries. Infeasible and timed-out solves are reported in the response status field, not as HTTP errors.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No qualified teacher for a required subject", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedule/validate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Check timetable feasibility without solving",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["schoolSettings", "teachers", "classes", "subjects"],
            "properties": {
                "schoolSettings": {"$ref": "#/definitions/SchoolSettings"},
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/Teacher"}},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/Class"}},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}}
            }
        },
        "SchoolSettings": {
            "type": "object",
            "required": ["startTime", "endTime", "lessonDuration", "lunchBreakStartTime", "lunchBreakDuration", "workingDays"],
            "properties": {
                "startTime": {"type": "string", "example": "07:30"},
                "endTime": {"type": "string", "example": "14:30"},
                "lessonDuration": {"type": "integer", "example": 45},
                "breakDuration": {"type": "integer", "example": 5},
                "hasBreakfastBreak": {"type": "boolean"},
                "breakfastBreakStartTime": {"type": "string", "example": "09:30"},
                "breakfastBreakDuration": {"type": "integer", "example": 15},
                "lunchBreakStartTime": {"type": "string", "example": "12:00"},
                "lunchBreakDuration": {"type": "integer", "example": 45},
                "workingDays": {"type": "array", "items": {"type": "string"}},
                "useRoomConstraints": {"type": "boolean"},
                "maxSubjectsPerDay": {"type": "integer"},
                "exactLessonsPerDay": {"type": "integer"},
                "minSubjectsPerDay": {"type": "integer"},
                "minFreeDaysPerWeek": {"type": "integer"},
                "freePeriods": {"type": "array", "items": {"$ref": "#/definitions/FreePeriod"}},
                "schedulingPreferences": {"$ref": "#/definitions/SchedulingPreferences"}
            }
        },
        "FreePeriod": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Assembly"},
                "startTime": {"type": "string", "example": "07:30"},
                "duration": {"type": "integer", "example": 45},
                "days": {"type": "array", "items": {"type": "string"}},
                "forClasses": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SchedulingPreferences": {
            "type": "object",
            "properties": {
                "balanceSubjectsAcrossDays": {"type": "boolean"},
                "preferMorningForHeavySubjects": {"type": "boolean"},
                "heavySubjects": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Teacher": {
            "type": "object",
            "required": ["id", "subjects"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "maxHoursPerDay": {"type": "integer"},
                "maxHoursPerWeek": {"type": "integer"},
                "availability": {"type": "array", "items": {"$ref": "#/definitions/AvailabilityWindow"}}
            }
        },
        "AvailabilityWindow": {
            "type": "object",
            "properties": {
                "day": {"type": "string", "example": "Monday"},
                "timeSlots": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "startTime": {"type": "string"},
                            "endTime": {"type": "string"}
                        }
                    }
                }
            }
        },
        "Class": {
            "type": "object",
            "required": ["id", "requiredSubjects"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "requiredSubjects": {"type": "array", "items": {"type": "string"}},
                "students": {"type": "integer"}
            }
        },
        "Subject": {
            "type": "object",
            "required": ["id", "hoursPerWeek"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "hoursPerWeek": {"type": "integer"}
            }
        },
        "Room": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "capacity": {"type": "integer"}
            }
        },
        "ScheduleEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "day": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "roomId": {"type": "string"},
                "roomName": {"type": "string"},
                "kind": {"type": "string", "enum": ["lesson", "breakfast-break", "lunch-break"]},
                "isBreak": {"type": "boolean"},
                "breakType": {"type": "string", "enum": ["breakfast", "lunch"]}
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
