// Package data provides patient record and daily-round storage for the
// clinical decision API. Stores re-read their backing JSON files on every
// call so edits to the data directory are visible without a restart, and
// an unreadable file degrades to empty results instead of failing requests.
package data

// Patient is a single patient record from patients.json.
type Patient struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Age           int      `json:"age"`
	ConditionTags []string `json:"condition_tags"`
	Allergies     []string `json:"allergies"`
	DoctorID      string   `json:"doctor_id"`
}

// Round is a single morning-briefing entry from daily_rounds.json.
type Round struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	Ward        string `json:"ward"`
	Update      string `json:"update"`
	Priority    string `json:"priority"`
	Time        string `json:"time"`
}
