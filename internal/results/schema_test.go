package results

import "testing"

func TestValidateDocument_WellFormed(t *testing.T) {
	doc := []byte(`{
		"allTestsCount": 1,
		"version": {"duration": "0:10:30"},
		"tests": [{"file": "a/t.hip", "diff": [{"frame": 0, "renderElements": [{"name": "beauty"}]}]}]
	}`)
	if err := ValidateDocument(doc); err != nil {
		t.Fatal(err)
	}
}

func TestValidateDocument_UnknownKeysAllowed(t *testing.T) {
	doc := []byte(`{"futureField": {"x": 1}, "tests": []}`)
	if err := ValidateDocument(doc); err != nil {
		t.Fatal(err)
	}
}

func TestValidateDocument_BadDurationPattern(t *testing.T) {
	doc := []byte(`{"version": {"duration": "90 minutes"}}`)
	if err := ValidateDocument(doc); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestValidateDocument_WrongContainerType(t *testing.T) {
	doc := []byte(`{"tests": {"not": "a list"}}`)
	if err := ValidateDocument(doc); err == nil {
		t.Fatal("expected validation failure")
	}
}
