package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Incident Report API",
        "description": "Anonymous incident reporting backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Analysis", "description": "AI-assisted image classification"},
        {"name": "Reports", "description": "Incident report lifecycle"}
    ],
    "paths": {
        "/analyze-image": {
            "post": {
                "tags": ["Analysis"],
                "summary": "Classify an incident image",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnalyzeImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ImageAnalysis"}},
                    "400": {"description": "Missing or malformed image", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Failed to analyze image", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/reports/create": {
            "post": {
                "tags": ["Reports"],
                "summary": "Submit an incident report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CreateReportResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Report already exists", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Failed to submit report", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/reports/{reportId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get report details",
                "parameters": [
                    {"name": "reportId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Report"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Failed to fetch report details", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "patch": {
                "tags": ["Reports"],
                "summary": "Update report status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "reportId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateReportStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Report"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Error updating report", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List reports",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "IN_PROGRESS", "RESOLVED", "DISMISSED"]},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ReportList"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/reports/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export reports as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported export format", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "AnalyzeImageRequest": {
            "type": "object",
            "required": ["image"],
            "properties": {
                "image": {"type": "string", "description": "data:<mime>;base64,<payload>"}
            }
        },
        "ImageAnalysis": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "reportType": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "required": ["reportId", "type", "title", "description"],
            "properties": {
                "reportId": {"type": "string"},
                "type": {"type": "string", "enum": ["Theft", "Fire Outbreak", "Medical Emergency", "Natural Disaster", "Violence", "Other"]},
                "specificType": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "image": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "IN_PROGRESS", "RESOLVED", "DISMISSED"]}
            }
        },
        "CreateReportResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "reportId": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "UpdateReportStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "IN_PROGRESS", "RESOLVED", "DISMISSED"]}
            }
        },
        "Report": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "reportId": {"type": "string"},
                "type": {"type": "string"},
                "reportType": {"type": "string", "x-nullable": true},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string", "x-nullable": true},
                "latitude": {"type": "number", "x-nullable": true},
                "longitude": {"type": "number", "x-nullable": true},
                "image": {"type": "string", "x-nullable": true},
                "status": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
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
        "ReportList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Report"}},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"}
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
