package dto

// AvailabilityQuery bounds the offered-lessons listing.
type AvailabilityQuery struct {
	From      string `form:"from"`
	To        string `form:"to"`
	Classroom string `form:"classroom"`
}

// ExportQuery selects the day and format for the reservation sheet.
type ExportQuery struct {
	Date   string `form:"date" validate:"required"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
