package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
)

// terminalPrompter asks the completion questions on a line based terminal.
// End of input cancels whatever is being asked.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

var errCancelled = errors.New("input closed")

func (p *terminalPrompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *terminalPrompter) yesNo(label string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	answer, err := p.ask(label + " " + hint)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}

func (p *terminalPrompter) ConfirmConsultation(ctx context.Context, appt appointment.Appointment) (bool, error) {
	fmt.Fprintf(p.out, "Appointment #%d marked as completed.\n", appt.ID)
	yes, err := p.yesNo("Add a consultation now?", false)
	if errors.Is(err, errCancelled) {
		return false, nil
	}
	return yes, err
}

// AuthorConsultation fills the draft line by line. Diagnosis is required;
// prescriptions and lab results repeat until a blank name.
func (p *terminalPrompter) AuthorConsultation(ctx context.Context, form consultation.Form) (consultation.FormResult, error) {
	d := form.Draft
	name := form.Patient.Name
	if name == "" {
		name = fmt.Sprintf("patient #%d", d.PatientID)
	}
	fmt.Fprintf(p.out, "New consultation for %s\n", name)

	res, err := p.author(&d)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(p.out, "\nConsultation discarded.")
		return consultation.FormResult{}, nil
	}
	return res, err
}

func (p *terminalPrompter) author(d *consultation.Draft) (consultation.FormResult, error) {
	var err error
	for d.Diagnosis == "" {
		if d.Diagnosis, err = p.ask("Diagnosis"); err != nil {
			return consultation.FormResult{}, err
		}
	}
	if d.Symptoms, err = p.ask("Symptoms"); err != nil {
		return consultation.FormResult{}, err
	}
	if d.Notes, err = p.ask("Notes"); err != nil {
		return consultation.FormResult{}, err
	}

	for {
		med, err := p.ask("Medication (blank to finish)")
		if err != nil {
			return consultation.FormResult{}, err
		}
		if med == "" {
			break
		}
		rx := consultation.PrescriptionInput{MedicationName: med}
		for rx.Dosage == "" {
			if rx.Dosage, err = p.ask("  Dosage"); err != nil {
				return consultation.FormResult{}, err
			}
		}
		if rx.Frequency, err = p.ask("  Frequency"); err != nil {
			return consultation.FormResult{}, err
		}
		if rx.Duration, err = p.ask("  Duration"); err != nil {
			return consultation.FormResult{}, err
		}
		d.Prescriptions = append(d.Prescriptions, rx)
	}

	for {
		test, err := p.ask("Lab test (blank to finish)")
		if err != nil {
			return consultation.FormResult{}, err
		}
		if test == "" {
			break
		}
		lab := consultation.LabResultDraft{TestName: test}
		if lab.ResultSummary, err = p.ask("  Result summary"); err != nil {
			return consultation.FormResult{}, err
		}
		if lab.TestDate, err = p.ask("  Test date (YYYY-MM-DD)"); err != nil {
			return consultation.FormResult{}, err
		}
		files, err := p.ask("  Files to attach (comma separated paths)")
		if err != nil {
			return consultation.FormResult{}, err
		}
		lab.Files = pendingFiles(files)
		d.LabResults = append(d.LabResults, lab)
	}

	save, err := p.yesNo("Save consultation?", true)
	if err != nil {
		return consultation.FormResult{}, err
	}
	return consultation.FormResult{Submitted: save, Draft: *d}, nil
}

func pendingFiles(list string) []consultation.PendingFile {
	var out []consultation.PendingFile
	for _, path := range strings.Split(list, ",") {
		if path = strings.TrimSpace(path); path != "" {
			out = append(out, consultation.PendingFile{Name: filepath.Base(path), Path: path})
		}
	}
	return out
}
