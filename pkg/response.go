// Package pkg provides shared types and utilities for the Top 5 API.
package pkg

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Response is the standard API envelope used by every endpoint.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}

// OK builds a success envelope with the given payload and message.
func OK(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// OKPage builds a success envelope carrying pagination metadata.
func OKPage(data interface{}, p Pagination, message string) Response {
	return Response{Success: true, Data: data, Pagination: &p, Message: message}
}

// Fail builds an error envelope with the given message.
func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// FailWith builds an error envelope carrying field-level details.
func FailWith(message string, errs interface{}) Response {
	return Response{Success: false, Message: message, Errors: errs}
}
