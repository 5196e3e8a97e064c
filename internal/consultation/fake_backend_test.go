package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
)

// fakeClinic is an in-memory ClinicBackend that counts every call.
type fakeClinic struct {
	mu            sync.Mutex
	calls         []string
	appointments  map[int64]*appointment.Appointment
	patients      map[int64]*patient.Patient
	consultations map[int64]*Consultation
	nextID        int64

	statusErr   error
	createErr   error
	getErr      error
	failUploads map[string]bool
	lastCreate  *CreateRequest
}

func newFakeClinic() *fakeClinic {
	return &fakeClinic{
		appointments:  map[int64]*appointment.Appointment{},
		patients:      map[int64]*patient.Patient{},
		consultations: map[int64]*Consultation{},
		failUploads:   map[string]bool{},
		nextID:        100,
	}
}

func (f *fakeClinic) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClinic) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClinic) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeClinic) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeClinic) UploadFile(ctx context.Context, file PendingFile) (string, error) {
	f.record("upload " + file.Name)
	if f.failUploads[file.Name] {
		return "", apperror.Transport(errors.New("connection reset"))
	}
	return "uploads/" + file.Name, nil
}

func (f *fakeClinic) UpdateAppointmentStatus(ctx context.Context, id int64, status appointment.Status) error {
	f.record("status")
	if f.statusErr != nil {
		return f.statusErr
	}
	if a, ok := f.appointments[id]; ok {
		a.Status = status
	}
	return nil
}

func (f *fakeClinic) CreateConsultation(ctx context.Context, req CreateRequest) (*Consultation, error) {
	f.record("create consultation")
	f.lastCreate = &req
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := &Consultation{
		ID:            f.id(),
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		AppointmentID: req.AppointmentID,
		Diagnosis:     req.Diagnosis,
		Symptoms:      req.Symptoms,
		Notes:         req.Notes,
	}
	for _, p := range req.Prescriptions {
		c.Prescriptions = append(c.Prescriptions, prescriptionFrom(f.id(), c.ID, p))
	}
	for _, l := range req.LabResults {
		c.LabResults = append(c.LabResults, labResultFrom(f.id(), c.ID, l))
	}
	f.consultations[c.ID] = c
	return cloneConsultation(c), nil
}

func (f *fakeClinic) GetConsultation(ctx context.Context, id int64) (*Consultation, error) {
	f.record("get consultation")
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.consultations[id]
	if !ok {
		return nil, apperror.Business("Consultation not found")
	}
	return cloneConsultation(c), nil
}

func (f *fakeClinic) UpdateConsultation(ctx context.Context, id int64, d Details) error {
	f.record("update consultation")
	c, ok := f.consultations[id]
	if !ok {
		return apperror.Business("Consultation not found")
	}
	c.Diagnosis, c.Symptoms, c.Notes = d.Diagnosis, d.Symptoms, d.Notes
	return nil
}

func (f *fakeClinic) DeleteConsultation(ctx context.Context, id int64) error {
	f.record("delete consultation")
	delete(f.consultations, id)
	return nil
}

func (f *fakeClinic) CreatePrescription(ctx context.Context, consultationID int64, in PrescriptionInput) error {
	f.record("create prescription")
	c, ok := f.consultations[consultationID]
	if !ok {
		return apperror.Business("Consultation not found")
	}
	c.Prescriptions = append(c.Prescriptions, prescriptionFrom(f.id(), c.ID, in))
	return nil
}

func (f *fakeClinic) UpdatePrescription(ctx context.Context, id int64, in PrescriptionInput) error {
	f.record("update prescription")
	for _, c := range f.consultations {
		for i := range c.Prescriptions {
			if c.Prescriptions[i].ID == id {
				c.Prescriptions[i] = prescriptionFrom(id, c.ID, in)
				return nil
			}
		}
	}
	return apperror.Business("Prescription not found")
}

func (f *fakeClinic) DeletePrescription(ctx context.Context, id int64) error {
	f.record("delete prescription")
	for _, c := range f.consultations {
		for i := range c.Prescriptions {
			if c.Prescriptions[i].ID == id {
				c.Prescriptions = append(c.Prescriptions[:i], c.Prescriptions[i+1:]...)
				return nil
			}
		}
	}
	return apperror.Business("Prescription not found")
}

func (f *fakeClinic) CreateLabResult(ctx context.Context, consultationID int64, in LabResultInput) error {
	f.record("create lab result")
	c, ok := f.consultations[consultationID]
	if !ok {
		return apperror.Business("Consultation not found")
	}
	c.LabResults = append(c.LabResults, labResultFrom(f.id(), c.ID, in))
	return nil
}

func (f *fakeClinic) UpdateLabResult(ctx context.Context, id int64, in LabResultInput) error {
	f.record("update lab result")
	for _, c := range f.consultations {
		for i := range c.LabResults {
			if c.LabResults[i].ID == id {
				c.LabResults[i] = labResultFrom(id, c.ID, in)
				return nil
			}
		}
	}
	return apperror.Business("Lab result not found")
}

func (f *fakeClinic) DeleteLabResult(ctx context.Context, id int64) error {
	f.record("delete lab result")
	for _, c := range f.consultations {
		for i := range c.LabResults {
			if c.LabResults[i].ID == id {
				c.LabResults = append(c.LabResults[:i], c.LabResults[i+1:]...)
				return nil
			}
		}
	}
	return apperror.Business("Lab result not found")
}

func (f *fakeClinic) PatientRecords(ctx context.Context, patientID int64) (*RecordBundle, error) {
	f.record("records")
	b := &RecordBundle{}
	for _, c := range f.consultations {
		if c.PatientID != patientID {
			continue
		}
		b.Consultations = append(b.Consultations, *cloneConsultation(c))
		b.Prescriptions = append(b.Prescriptions, c.Prescriptions...)
		b.LabResults = append(b.LabResults, c.LabResults...)
	}
	return b, nil
}

func (f *fakeClinic) GetAppointment(ctx context.Context, id int64) (*appointment.Appointment, error) {
	f.record("get appointment")
	a, ok := f.appointments[id]
	if !ok {
		return nil, apperror.Business(fmt.Sprintf("Appointment %d not found", id))
	}
	cp := *a
	return &cp, nil
}

func (f *fakeClinic) GetPatient(ctx context.Context, id int64) (*patient.Patient, error) {
	f.record("get patient")
	p, ok := f.patients[id]
	if !ok {
		return nil, apperror.Business("Patient not found")
	}
	cp := *p
	return &cp, nil
}

func prescriptionFrom(id, consultationID int64, in PrescriptionInput) Prescription {
	return Prescription{
		ID:             id,
		ConsultationID: consultationID,
		MedicationName: in.MedicationName,
		Dosage:         in.Dosage,
		Frequency:      in.Frequency,
		Duration:       in.Duration,
	}
}

func labResultFrom(id, consultationID int64, in LabResultInput) LabResult {
	return LabResult{
		ID:             id,
		ConsultationID: consultationID,
		TestName:       in.TestName,
		ResultSummary:  in.ResultSummary,
		TestDate:       in.TestDate,
		Files:          append(FilePaths(nil), in.Files...),
	}
}

func cloneConsultation(c *Consultation) *Consultation {
	cp := *c
	cp.Prescriptions = append([]Prescription(nil), c.Prescriptions...)
	cp.LabResults = append([]LabResult(nil), c.LabResults...)
	return &cp
}
