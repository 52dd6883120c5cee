package acceptance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify_InsideAndOutsideZone(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	ts.CreateTestParkingLot(t, "Stockholm", 18.06, 59.33)

	check := func(lon, lat float64, want bool) {
		t.Helper()
		path := fmt.Sprintf("/cities/Stockholm/classify?longitude=%f&latitude=%f", lon, lat)
		w := ts.GET(path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		var resp struct {
			InZone bool `json:"inZone"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.InZone != want {
			t.Errorf("classify(%f, %f) = %v, want %v", lon, lat, resp.InZone, want)
		}
	}

	check(18.06, 59.33, true)
	// ~33m north of the lot, still inside the 40m radius
	check(18.06, 59.3303, true)
	check(18.10, 59.35, false)
}

func TestClassify_UnknownCity(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.GET("/cities/Atlantis/classify?longitude=18.06&latitude=59.33", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}

func TestClassify_RejectsBadCoordinates(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")

	w := ts.GET("/cities/Stockholm/classify?longitude=east&latitude=59.33", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestCity_CreateAndAddParking(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.POST("/cities", map[string]string{"city": "Malmo"}, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	body := map[string]interface{}{
		"address":         "Stortorget 1",
		"longitude":       13.0,
		"latitude":        55.6,
		"chargingStation": true,
	}
	w = ts.POST("/cities/Malmo/parking", body, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	w = ts.POST("/cities/Atlantis/parking", body, asUser("auth0|ops"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}

	var count int
	if err := ts.DB.Get(&count, `SELECT count(*) FROM parking_lots WHERE city_name = 'Malmo'`); err != nil {
		t.Fatalf("failed to count parking lots: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one parking lot, got %d", count)
	}
}
