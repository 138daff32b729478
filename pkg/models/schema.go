package models

// CatalogSchema is the JSON Schema for model catalog validation
const CatalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "models"],
  "properties": {
    "version": {
      "type": "integer",
      "minimum": 1,
      "description": "Catalog format version"
    },
    "models": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {
            "type": "string",
            "pattern": "^[a-z0-9][a-z0-9._-]*$",
            "description": "Unique model identifier"
          },
          "name": {
            "type": "string",
            "description": "Human-readable model name"
          },
          "context_window": {
            "type": "integer",
            "minimum": 1,
            "description": "Context window in tokens"
          },
          "quantization": {
            "type": "string",
            "description": "Quantization label (e.g. Q4_K_M)"
          },
          "description": {
            "type": "string"
          }
        }
      }
    }
  }
}`
