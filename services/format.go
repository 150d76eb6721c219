package services

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// financePrefixes maps SI prefixes onto the suffixes used for volumes and caps
var financePrefixes = map[string]string{
	"":  "",
	"k": "K",
	"M": "M",
	"G": "B",
	"T": "T",
	"P": "Q",
}

// CompactNumber renders a count the way the dashboard shows volume and
// market cap, e.g. 2300000 -> "2.3M" and 16.7e12 -> "16.7T"
func CompactNumber(v float64) string {
	if v <= 0 {
		return "0"
	}
	value, prefix := humanize.ComputeSI(v)
	suffix, ok := financePrefixes[prefix]
	if !ok {
		return humanize.Commaf(v)
	}
	s := strconv.FormatFloat(value, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + suffix
}
