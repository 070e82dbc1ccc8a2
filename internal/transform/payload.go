// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package transform

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/models"
)

// decodeObject decodes a payload into a top-level object. A payload stored
// as a JSON string is decoded a second time. Anything else yields nil.
func decodeObject(raw json.RawMessage) map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil
	}
	return obj
}

// decodeList decodes raw as a JSON array, returning nil for anything else.
func decodeList(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// scheduleItems walks a brand payload to its list of schedule items.
//
//	BrandA: data[]
//	BrandB: first non-empty of Movies[], PlaySeqs.Items[], PlaySeqs[], Items[]
//	BrandC: megaMap.movieFormList[]
func scheduleItems(brand models.Brand, payload json.RawMessage) []json.RawMessage {
	obj := decodeObject(payload)
	if obj == nil {
		return nil
	}

	switch brand {
	case models.BrandA:
		return decodeList(obj["data"])

	case models.BrandB:
		if items := decodeList(obj["Movies"]); len(items) > 0 {
			return items
		}
		if seqs := decodeObject(obj["PlaySeqs"]); seqs != nil {
			if items := decodeList(seqs["Items"]); len(items) > 0 {
				return items
			}
		}
		if items := decodeList(obj["PlaySeqs"]); len(items) > 0 {
			return items
		}
		return decodeList(obj["Items"])

	case models.BrandC:
		mega := decodeObject(obj["megaMap"])
		if mega == nil {
			return nil
		}
		return decodeList(mega["movieFormList"])

	default:
		return nil
	}
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexInt accepts a JSON number, a numeric string or anything else, which
// coerces to 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
		b = []byte(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = flexInt(int(v))
	return nil
}

// brandAItem is one entry of BrandA's data list.
type brandAItem struct {
	MovieNm     flexString `json:"movieNm"`
	ScnYmd      flexString `json:"scnYmd"`
	ScnsrtTm    flexString `json:"scnsrtTm"`
	ScnendTm    flexString `json:"scnendTm"`
	ScrnNm      flexString `json:"scrnNm"`
	TotSeatCnt  flexInt    `json:"totSeatCnt"`
	RestSeatCnt flexInt    `json:"restSeatCnt"`
}

// brandBItem is one BrandB showtime.
type brandBItem struct {
	MovieName          flexString `json:"MovieName"`
	ScreenName         flexString `json:"ScreenName"`
	StartTime          flexString `json:"StartTime"`
	EndTime            flexString `json:"EndTime"`
	RepresentationDate flexString `json:"RepresentationDate"`
	TotalSeat          flexInt    `json:"TotalSeat"`
	RemainSeat         flexInt    `json:"RemainSeat"`
}

// brandCItem is one entry of BrandC's megaMap.movieFormList.
type brandCItem struct {
	MovieNm       flexString `json:"movieNm"`
	PlayDe        flexString `json:"playDe"`
	PlayStartTime flexString `json:"playStartTime"`
	PlayEndTime   flexString `json:"playEndTime"`
	TheabExpoNm   flexString `json:"theabExpoNm"`
	TotSeatCnt    flexInt    `json:"totSeatCnt"`
	RestSeatCnt   flexInt    `json:"restSeatCnt"`
}
