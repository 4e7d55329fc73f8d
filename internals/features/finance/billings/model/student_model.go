package model

const (
	CollectionStudents = "students"
	CollectionClasses  = "classes"
)

// Student: roster (read-only untuk modul keuangan).
type Student struct {
	StudentID              string `json:"student_id" yaml:"id"`
	StudentName            string `json:"student_name" yaml:"name"`
	StudentAdmissionNumber string `json:"student_admission_number,omitempty" yaml:"admission_number"`
	StudentClassID         string `json:"student_class_id,omitempty" yaml:"class_id"`
}

type Class struct {
	ClassID   string `json:"class_id" yaml:"id"`
	ClassName string `json:"class_name" yaml:"name"`
}
