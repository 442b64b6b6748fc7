package domain

// Job is the canonical job record shared by the API and its clients
type Job struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Pay              string  `json:"pay"`
	Location         string  `json:"location"`
	Date             string  `json:"date"`
	Description      *string `json:"description,omitempty"`
	CropType         *string `json:"crop_type,omitempty"`
	WorkersRequested *int    `json:"workers_requested,omitempty"`
	GrowerID         string  `json:"grower_id,omitempty"`
	FarmName         string  `json:"farm_name,omitempty"`
}

// NewJob is the record a grower emits when posting a job.
// Pay and Date are opaque strings; no format is imposed.
type NewJob struct {
	Title       string  `json:"title"`
	Pay         string  `json:"pay"`
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Description *string `json:"description,omitempty"`
}

// MissingFields lists the required fields that are empty
func (j NewJob) MissingFields() []string {
	var missing []string
	if j.Title == "" {
		missing = append(missing, "title")
	}
	if j.Pay == "" {
		missing = append(missing, "pay")
	}
	if j.Location == "" {
		missing = append(missing, "location")
	}
	if j.Date == "" {
		missing = append(missing, "date")
	}
	return missing
}
