package google

import (
	"context"
	"strings"
	"testing"
)

const testClientJSON = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || !strings.Contains(err.Error(), "spreadsheet id") {
		t.Errorf("expected spreadsheet id error, got %v", err)
	}
}

func TestNewRequiresOAuthClient(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-1"})
	if err == nil || !strings.Contains(err.Error(), "missing oauth client") {
		t.Errorf("expected missing client error, got %v", err)
	}
}

func TestNewRequiresOAuthToken(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-1",
		ClientJSON:    testClientJSON,
	})
	if err == nil || !strings.Contains(err.Error(), "missing oauth token") {
		t.Errorf("expected missing token error, got %v", err)
	}
}

func TestNewRejectsMalformedToken(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-1",
		ClientJSON:    testClientJSON,
		TokenJSON:     "{not json",
	})
	if err == nil || !strings.Contains(err.Error(), "parse oauth token") {
		t.Errorf("expected token parse error, got %v", err)
	}
}
