package results

import (
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// documentSchema describes the results document shape. It is deliberately
// permissive: unknown keys are allowed everywhere (producers add fields
// between versions) and nothing is required, but present containers must
// have the right type and version.duration must look like H:MM:SS.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "allTestsCount": {"type": "integer"},
    "failedTestsCount": {"type": "integer"},
    "labels": {"type": "array", "items": {"type": "string"}},
    "resultVersion": {"type": "string"},
    "statsFields": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "dimension": {"type": "string"}
        }
      }
    },
    "title": {"type": "string"},
    "updateRefTimes": {"type": "boolean"},
    "version": {
      "type": "object",
      "properties": {
        "duration": {"type": "string", "pattern": "^[0-9]+:[0-9]+:[0-9]+$"}
      }
    },
    "tests": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "endTime": {"type": "number"},
          "startTime": {"type": "number"},
          "exitCode": {"type": "integer"},
          "fileName": {"type": "string"},
          "file": {"type": "string"},
          "logFile": {"type": "string"},
          "metric": {"type": "string"},
          "status": {"type": "string"},
          "stats": {"type": "object"},
          "workerIndex": {"type": "integer"},
          "diff": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "frame": {"type": "integer"},
                "renderElements": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "properties": {
                      "name": {"type": "string"},
                      "deltaCount": {"type": "integer"},
                      "status": {"type": "string"},
                      "exitCode": {"type": "integer"},
                      "refFile": {"type": "string"},
                      "refReproFile": {"type": "string"},
                      "runFile": {"type": "string"},
                      "deltaFile": {"type": "string"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, schemaErr = compiler.Compile([]byte(documentSchema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile document schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks raw document bytes against the results schema.
// Loading does not require this; it exists for the validate command and for
// callers that want structural problems reported before a tolerant load
// papers over them.
func ValidateDocument(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: schema validation failed: %v", ErrParse, result.Errors)
}
