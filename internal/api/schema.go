package api

// requestSchema describes a prediction request body. Unknown properties are
// allowed; clients have always sent extra fields.
const requestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["fecha", "hora", "atraccion", "zona"],
  "properties": {
    "fecha":        {"type": "string"},
    "hora":         {"type": ["string", "number"]},
    "atraccion":    {"type": "string"},
    "zona":         {"type": "string"},
    "temperatura":  {"type": "number"},
    "humedad":      {"type": "number"},
    "codigo_clima": {"type": "number"}
  }
}`

// requiredFields are checked before schema validation so a missing field
// gets the dedicated message clients match on.
var requiredFields = []string{"fecha", "hora", "atraccion", "zona"}
