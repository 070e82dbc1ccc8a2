// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared. Field names in errors
// are the JSON names clients send, so a bad crawlStartDate is reported as
// "crawlStartDate" rather than "CrawlStartDate".
//
// # Run Requests
//
// models.RunConfig carries field tags for the simple rules and a struct-level
// rule for the ones that span fields:
//
//   - crawlStartDate, crawlEndDate: required, YYYY-MM-DD
//   - crawlEndDate must not precede crawlStartDate (tag "daterange")
//   - choiceCompany must enable at least one brand (tag "brands")
//   - movieSettings[].movieName: required, at most 200 characters
//
// # API Error Integration
//
// ToAPIError produces the payload the API writes under "error":
//
//	{
//	    "code": "VALIDATION_FAILED",
//	    "message": "crawlEndDate must not be before crawlStartDate",
//	    "details": {"field": "crawlEndDate", "tag": "daterange", "value": "2026-01-01"}
//	}
//
// Several failures are joined into one message with a "fields" list in details.
package validation
