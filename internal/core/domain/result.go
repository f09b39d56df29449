package domain

import "time"

// EntityReport summarises one entity's pass.
type EntityReport struct {
	Name              string
	Artifacts         int
	Addresses         int
	DescriptorSource  DescriptorSource
	DescriptorWritten bool
	AddressesWritten  bool
}

// Result is the outcome of one consolidation run.
type Result struct {
	RunID              string
	StartedAt          time.Time
	FinishedAt         time.Time
	DescriptorsWritten int
	AddressMapsWritten int
	Entities           []EntityReport
	Errors             []ArtifactError
}

// Failed reports whether any artifact was skipped with an error.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}
