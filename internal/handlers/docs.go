package handlers

import (
	"encoding/json"
	"net/http"
)

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": schema,
			},
		},
	}
}

func dateParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]string{"type": "string", "example": "2017-01-01"},
	}
}

var queryFailedResponse = map[string]interface{}{
	"description": "Query failed",
	"content": map[string]interface{}{
		"text/plain": map[string]interface{}{
			"schema": map[string]string{"type": "string"},
		},
	},
}

// summarySchema is the [min, avg, max] array; all three are null for an empty range
var summarySchema = map[string]interface{}{
	"type":     "array",
	"minItems": 3,
	"maxItems": 3,
	"items":    map[string]interface{}{"type": "number", "nullable": true},
}

// openAPIDocument describes the public routes
func openAPIDocument() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Climate API",
			"description": "Read-only precipitation and temperature observations for Hawaii weather stations",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://127.0.0.1:5000", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			RoutePrecipitation: map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     publicRoutes[0].Summary,
					"description": "Date to value for every measurement dated after the cutoff. Duplicate dates keep the last row read.",
					"responses": map[string]interface{}{
						"200": jsonResponse("Date to value mapping", map[string]interface{}{
							"type":                 "object",
							"additionalProperties": map[string]interface{}{"type": "number", "nullable": true},
						}),
						"500": queryFailedResponse,
					},
				},
			},
			RouteStations: map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     publicRoutes[1].Summary,
					"description": "Stations that have at least one measurement",
					"responses": map[string]interface{}{
						"200": jsonResponse("Station identifiers", map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string", "nullable": true},
						}),
						"500": queryFailedResponse,
					},
				},
			},
			RouteTobs: map[string]interface{}{
				"get": map[string]interface{}{
					"summary": publicRoutes[2].Summary,
					"responses": map[string]interface{}{
						"200": jsonResponse("One single-value row per observation", map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type":     "array",
								"minItems": 1,
								"maxItems": 1,
								"items":    map[string]string{"type": "number"},
							},
						}),
						"500": queryFailedResponse,
					},
				},
			},
			RouteStart: map[string]interface{}{
				"get": map[string]interface{}{
					"summary": publicRoutes[3].Summary,
					"parameters": []map[string]interface{}{
						dateParam("start", "Inclusive start date, yyyy-mm-dd"),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("[min, avg, max]", summarySchema),
						"500": queryFailedResponse,
					},
				},
			},
			RouteStartEnd: map[string]interface{}{
				"get": map[string]interface{}{
					"summary": publicRoutes[4].Summary,
					"parameters": []map[string]interface{}{
						dateParam("start", "Inclusive start date, yyyy-mm-dd"),
						dateParam("end", "Inclusive end date, yyyy-mm-dd"),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("[min, avg, max]", summarySchema),
						"500": queryFailedResponse,
					},
				},
			},
			RouteHealth: map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Reports whether the data store answers",
					"responses": map[string]interface{}{
						"200": jsonResponse("API is healthy", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"status":    map[string]string{"type": "string"},
								"timestamp": map[string]string{"type": "string", "format": "date-time"},
							},
						}),
						"503": map[string]interface{}{"description": "Data store unreachable"},
					},
				},
			},
			RouteMetrics: map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Prometheus metrics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Climate API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openAPIDocument())
}
