package acceptance

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestBattery_ClampsAtFullCharge(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	bikeID := ts.CreateTestBike(t, "Stockholm", 18.06, 59.33)
	ts.SetBikeBattery(t, bikeID, 60)

	w := ts.PUT("/bikes/"+bikeID+"/battery/increase/150", nil, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var b struct {
		Battery  int  `db:"battery"`
		Charging bool `db:"charging"`
	}
	if err := ts.DB.Get(&b, `SELECT battery, charging FROM bikes WHERE id = $1`, bikeID); err != nil {
		t.Fatalf("failed to read bike: %v", err)
	}
	if b.Battery != 100 {
		t.Errorf("expected battery clamped to 100, got %d", b.Battery)
	}
	if b.Charging {
		t.Error("expected charging cleared once full")
	}

	// A second increase at the cap is a conflict, not a silent no-op
	w = ts.PUT("/bikes/"+bikeID+"/battery/increase/10", nil, asUser("auth0|ops"))
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "AT_BOUNDARY" {
		t.Errorf("expected code AT_BOUNDARY, got %s", resp["code"])
	}
}

func TestBattery_InRangeIncreaseSetsCharging(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	bikeID := ts.CreateTestBike(t, "Stockholm", 18.06, 59.33)
	ts.SetBikeBattery(t, bikeID, 50)

	w := ts.PUT("/bikes/"+bikeID+"/battery/increase/10", nil, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var b struct {
		Battery  int  `db:"battery"`
		Charging bool `db:"charging"`
	}
	if err := ts.DB.Get(&b, `SELECT battery, charging FROM bikes WHERE id = $1`, bikeID); err != nil {
		t.Fatalf("failed to read bike: %v", err)
	}
	if b.Battery != 60 {
		t.Errorf("expected battery 60, got %d", b.Battery)
	}
	if !b.Charging {
		t.Error("expected charging set while below full")
	}

	// A decrease clears the flag again
	w = ts.PUT("/bikes/"+bikeID+"/battery/decrease/5", nil, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if err := ts.DB.Get(&b, `SELECT battery, charging FROM bikes WHERE id = $1`, bikeID); err != nil {
		t.Fatalf("failed to read bike: %v", err)
	}
	if b.Battery != 55 {
		t.Errorf("expected battery 55, got %d", b.Battery)
	}
	if b.Charging {
		t.Error("expected charging cleared on decrease")
	}
}

func TestSpeed_ClampsAtMax(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	bikeID := ts.CreateTestBike(t, "Stockholm", 18.06, 59.33)

	w := ts.PUT("/bikes/"+bikeID+"/speed/increase/100", nil, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var speed int
	if err := ts.DB.Get(&speed, `SELECT speed FROM bikes WHERE id = $1`, bikeID); err != nil {
		t.Fatalf("failed to read bike: %v", err)
	}
	if speed != 30 {
		t.Errorf("expected speed clamped to 30, got %d", speed)
	}

	w = ts.PUT("/bikes/"+bikeID+"/speed/increase/1", nil, asUser("auth0|ops"))
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
}

func TestAdjust_RejectsBadInput(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	bikeID := ts.CreateTestBike(t, "Stockholm", 18.06, 59.33)

	w := ts.PUT("/bikes/"+bikeID+"/battery/sideways/10", nil, asUser("auth0|ops"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}

	w = ts.PUT("/bikes/"+bikeID+"/battery/increase/0", nil, asUser("auth0|ops"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}

	w = ts.PUT("/bikes/not-a-uuid/battery/increase/10", nil, asUser("auth0|ops"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestDisable_ToggleAndNoChange(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	bikeID := ts.CreateTestBike(t, "Stockholm", 18.06, 59.33)

	w := ts.PUT("/bikes/"+bikeID+"/disabled", map[string]bool{"disabled": true}, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// Re-applying the same decision surfaces the race instead of hiding it
	w = ts.PUT("/bikes/"+bikeID+"/disabled", map[string]bool{"disabled": true}, asUser("auth0|ops"))
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "NO_CHANGE" {
		t.Errorf("expected code NO_CHANGE, got %s", resp["code"])
	}

	// A disabled bike cannot be rented
	w = ts.POST("/ride/start", map[string]string{"bikeId": bikeID}, asUser("auth0|alice"))
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "BIKE_UNAVAILABLE" {
		t.Errorf("expected code BIKE_UNAVAILABLE, got %s", resp["code"])
	}

	w = ts.PUT("/bikes/"+bikeID+"/disabled", map[string]bool{"disabled": false}, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var status string
	if err := ts.DB.Get(&status, `SELECT status FROM bikes WHERE id = $1`, bikeID); err != nil {
		t.Fatalf("failed to read bike: %v", err)
	}
	if status != "available" {
		t.Errorf("expected status available after enable, got %s", status)
	}
}

func TestBikes_ListAndGet(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestCity(t, "Stockholm")
	bikeID := ts.CreateTestBike(t, "Stockholm", 18.06, 59.33)

	// The fleet list is public
	w := ts.GET("/bikes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var bikes []struct {
		ID string `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &bikes)
	if len(bikes) != 1 || bikes[0].ID != bikeID {
		t.Errorf("unexpected bike list: %s", w.Body.String())
	}

	w = ts.GET("/bikes/"+bikeID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	w = ts.GET("/bikes/00000000-0000-0000-0000-000000000000", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}

func TestCreateBike_RequiresKnownCity(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	body := map[string]interface{}{"city": "Atlantis", "longitude": 18.06, "latitude": 59.33}
	w := ts.POST("/bikes", body, asUser("auth0|ops"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}

	ts.CreateTestCity(t, "Stockholm")
	body["city"] = "Stockholm"
	w = ts.POST("/bikes", body, asUser("auth0|ops"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var created struct {
		Battery   int    `json:"battery"`
		ColorCode string `json:"colorCode"`
		Parked    bool   `json:"parked"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Battery != 100 || created.ColorCode != "green" || !created.Parked {
		t.Errorf("unexpected new bike defaults: %s", w.Body.String())
	}
}
