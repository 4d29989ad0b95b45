package calendar

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/cpuguy83/freebusy"
)

// utcPeriodLayout is the RFC 5545 UTC date-time layout used in FREEBUSY
// period values.
const utcPeriodLayout = "20060102T150405Z"

// WriteFreeBusy encodes a search result as a VFREEBUSY component: the span
// becomes DTSTART/DTEND and each free period a FREEBUSY;FBTYPE=FREE value.
func WriteFreeBusy[P freebusy.Period](w io.Writer, span freebusy.Span, free []P) error {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//freebusy//freebusy//EN")

	comp := ics.NewComponent(ics.CompFreeBusy)
	comp.Props.SetText(ics.PropUID, fmt.Sprintf("freebusy-%d", span.Start().Unix()))
	comp.Props.SetDateTime(ics.PropDateTimeStamp, time.Now().UTC())
	comp.Props.SetDateTime(ics.PropDateTimeStart, span.Start())
	comp.Props.SetDateTime(ics.PropDateTimeEnd, span.End())

	for _, p := range free {
		prop := ics.NewProp(ics.PropFreeBusy)
		prop.Params.Set("FBTYPE", "FREE")
		prop.Value = fmt.Sprintf("%s/%s",
			p.Start().UTC().Format(utcPeriodLayout),
			p.End().UTC().Format(utcPeriodLayout))
		comp.Props.Add(prop)
	}

	cal.Children = append(cal.Children, comp)

	if err := ics.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}
	return nil
}

// WriteFreeBusyFile writes the VFREEBUSY document to a file atomically.
// It writes to a temp file first, then renames to the final path.
func WriteFreeBusyFile[P freebusy.Period](path string, span freebusy.Span, free []P) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteFreeBusy(&buf, span, free); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file on error
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
