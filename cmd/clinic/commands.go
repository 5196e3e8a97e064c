package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/viewmodel"
	"go.uber.org/zap"
)

// clinicBackend is everything the terminal needs from the clinic API.
type clinicBackend interface {
	consultation.ClinicBackend
	viewmodel.AppointmentSource
}

type app struct {
	backend       clinicBackend
	consultations *consultation.Service
	prompter      *terminalPrompter
	out           io.Writer
	log           *zap.Logger
	now           func() time.Time
}

func newApp(backend clinicBackend, logger *zap.Logger, in io.Reader, out io.Writer) *app {
	return &app{
		backend:       backend,
		consultations: consultation.NewService(backend, nil, logger),
		prompter:      newTerminalPrompter(in, out),
		out:           out,
		log:           logger,
		now:           time.Now,
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "appointments":
		return a.appointments(ctx, rest)
	case "stats":
		return a.stats(ctx)
	case "status":
		if len(rest) != 2 {
			return usageError("status <appointment-id> <completed|missed|cancelled>")
		}
		id, err := parseID(rest[0], "appointment id")
		if err != nil {
			return err
		}
		if strings.EqualFold(rest[1], string(appointment.StatusCompleted)) {
			return a.complete(ctx, id)
		}
		return a.status(ctx, id, rest[1])
	case "complete":
		if len(rest) != 1 {
			return usageError("complete <appointment-id>")
		}
		id, err := parseID(rest[0], "appointment id")
		if err != nil {
			return err
		}
		return a.complete(ctx, id)
	case "records":
		if len(rest) != 1 {
			return usageError("records <patient-id>")
		}
		id, err := parseID(rest[0], "patient id")
		if err != nil {
			return err
		}
		return a.records(ctx, id)
	case "delete-prescription":
		if len(rest) != 2 {
			return usageError("delete-prescription <consultation-id> <prescription-id>")
		}
		cid, err := parseID(rest[0], "consultation id")
		if err != nil {
			return err
		}
		pid, err := parseID(rest[1], "prescription id")
		if err != nil {
			return err
		}
		return a.deletePrescription(ctx, cid, pid)
	default:
		return usageError(fmt.Sprintf("unknown command %q", cmd))
	}
}

// screen loads the caller's appointment list. Doctors see their own
// appointments; nurses and admins see everyone's.
func (a *app) screen(ctx context.Context) (*viewmodel.AppointmentsScreen, error) {
	var filter appointment.ListFilter
	if userID, role := auth.Actor(ctx); role == auth.RoleDoctor {
		filter.DoctorID = userID
	} else if role == auth.RolePatient {
		filter.PatientID = userID
	}
	s := viewmodel.NewAppointmentsScreen(a.backend, a.consultations.Workflow(), filter, a.log)
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) appointments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("appointments", flag.ContinueOnError)
	fs.SetOutput(a.out)
	status := fs.String("status", "all", "only show this status")
	sortBy := fs.String("sort", "", "order by date: asc or desc")
	view := appointment.ViewAll
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		view = appointment.ParseView(args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return usageError("appointments [today|upcoming|past|all] [-status s] [-sort asc|desc]")
	}
	st, err := appointment.ParseFilterStatus(*status)
	if err != nil {
		return err
	}

	s, err := a.screen(ctx)
	if err != nil {
		return err
	}
	s.SetCriteria(appointment.Criteria{View: view, Status: st})
	now := a.now()
	list := s.Visible(now)
	switch strings.ToLower(*sortBy) {
	case "asc":
		list = appointment.SortByDate(list, true, now.Location())
	case "desc":
		list = appointment.SortByDate(list, false, now.Location())
	}
	a.printAppointments(list)
	return nil
}

func (a *app) printAppointments(list []appointment.Appointment) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No appointments.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPATIENT\tSTATUS\tREASON\tACTIONS")
	for _, appt := range list {
		patientName := appt.PatientName
		if patientName == "" {
			patientName = "#" + strconv.FormatInt(appt.PatientID, 10)
		}
		var actions []string
		for _, t := range appt.Status.Transitions() {
			actions = append(actions, string(t))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			appt.ID, appt.ScheduledAt, patientName, appt.Status, appt.Reason, strings.Join(actions, ","))
	}
	tw.Flush()
}

func (a *app) stats(ctx context.Context) error {
	s, err := a.screen(ctx)
	if err != nil {
		return err
	}
	st := s.Stats(a.now())
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", st.Total)
	fmt.Fprintf(tw, "Today\t%d\n", st.Today)
	fmt.Fprintf(tw, "Upcoming\t%d\n", st.Upcoming)
	fmt.Fprintf(tw, "Completed\t%d\n", st.Completed)
	fmt.Fprintf(tw, "Missed\t%d\n", st.Missed)
	fmt.Fprintf(tw, "Cancelled\t%d\n", st.Cancelled)
	return tw.Flush()
}

func (a *app) status(ctx context.Context, id int64, target string) error {
	s, err := a.screen(ctx)
	if err != nil {
		return err
	}
	out, err := s.Transition(ctx, id, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Appointment #%d: %s -> %s\n", id, out.PreviousStatus, out.Appointment.Status)
	return nil
}

func (a *app) complete(ctx context.Context, id int64) error {
	s, err := a.screen(ctx)
	if err != nil {
		return err
	}
	out, err := s.Complete(ctx, id, a.prompter)
	if err != nil {
		if apperror.Is(err, apperror.KindRestricted) {
			fmt.Fprintf(a.out, "Appointment #%d completed. %s\n", id, apperror.UserMessage(err))
			return nil
		}
		return err
	}
	switch {
	case out.Consultation != nil:
		fmt.Fprintf(a.out, "Consultation #%d saved.\n", out.Consultation.ID)
	case out.Declined:
		fmt.Fprintln(a.out, "No consultation added.")
	}
	for _, f := range out.SkippedFiles {
		fmt.Fprintf(a.out, "  not attached: %s (%s): %s\n", f.Name, f.TestName, f.Reason)
	}
	return nil
}

func (a *app) records(ctx context.Context, patientID int64) error {
	b, err := a.consultations.PatientRecords(ctx, patientID)
	if err != nil {
		return err
	}
	if len(b.Consultations) == 0 {
		fmt.Fprintln(a.out, "No consultations on file.")
		return nil
	}
	for _, c := range b.Consultations {
		a.printConsultation(c)
	}
	return nil
}

func (a *app) printConsultation(c consultation.Consultation) {
	fmt.Fprintf(a.out, "Consultation #%d  %s\n", c.ID, c.CreatedAt)
	fmt.Fprintf(a.out, "  Diagnosis: %s\n", c.Diagnosis)
	if c.Symptoms != "" {
		fmt.Fprintf(a.out, "  Symptoms:  %s\n", c.Symptoms)
	}
	if c.Notes != "" {
		fmt.Fprintf(a.out, "  Notes:     %s\n", c.Notes)
	}
	for _, p := range c.Prescriptions {
		fmt.Fprintf(a.out, "  Rx #%d %s %s %s %s\n", p.ID, p.MedicationName, p.Dosage, p.Frequency, p.Duration)
	}
	for _, l := range c.LabResults {
		fmt.Fprintf(a.out, "  Lab #%d %s: %s\n", l.ID, l.TestName, l.ResultSummary)
		for _, f := range l.Files {
			fmt.Fprintf(a.out, "    file: %s\n", f)
		}
	}
}

func (a *app) deletePrescription(ctx context.Context, consultationID, prescriptionID int64) error {
	ed := consultation.NewEditor(a.backend, consultationID, nil, a.log)
	if _, err := ed.Load(ctx); err != nil {
		return err
	}
	c, err := ed.DeletePrescription(ctx, prescriptionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Prescription #%d deleted.\n", prescriptionID)
	if rerr := ed.ReloadErr(); rerr != nil {
		fmt.Fprintf(a.out, "Could not reload the consultation: %s\n", apperror.UserMessage(rerr))
		return nil
	}
	a.printConsultation(*c)
	return nil
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

func usageError(msg string) error {
	return apperror.Validation("usage: " + msg)
}
