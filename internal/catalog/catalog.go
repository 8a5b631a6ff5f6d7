// Package catalog holds the office's specialty reference data: which
// professional attends each specialty, on which weekdays, and at which
// default hours. The data is static at runtime; schedule exceptions are
// handled by availability overrides, not by editing the catalog.
package catalog

// Specialty describes one consulting specialty offered by the office.
type Specialty struct {
	ID                   int      `json:"id"`
	Name                 string   `json:"name"`
	Professional         string   `json:"professional"`
	Description          string   `json:"description"`
	AvailableDays        []string `json:"available_days"`
	AvailableHours       []string `json:"available_hours"`
	ConsultationDuration int      `json:"consultation_duration"`
	IsActive             bool     `json:"is_active"`
}

var weekdays = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}

func hours(hs ...string) []string { return hs }

var morningAndAfternoon = hours("09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "14:00", "14:30", "15:00", "15:30")

var specialties = []Specialty{
	{ID: 1, Name: "CARDIOLOGÍA", Professional: "Lic. Ciro Carrillo", Description: "Especialista en enfermedades del corazón y sistema cardiovascular", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 30, IsActive: true},
	{ID: 2, Name: "COSMETOLOGÍA", Professional: "Lic. Melisa Ministeri", Description: "Tratamientos estéticos y procedimientos cosméticos", AvailableDays: weekdays, AvailableHours: append(append([]string{}, morningAndAfternoon...), "16:00"), ConsultationDuration: 45, IsActive: true},
	{ID: 3, Name: "DEPILACIÓN DEFINITIVA", Professional: "Lic. Sol Domizioli", Description: "Tratamientos de depilación láser definitiva", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 30, IsActive: true},
	{ID: 4, Name: "DERMATOLOGÍA", Professional: "Lic. Carolina Moreno", Description: "Diagnóstico y tratamiento de enfermedades de la piel", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 30, IsActive: true},
	{ID: 5, Name: "ECOGRAFÍAS", Professional: "Lic. David Barroso/Lic. Andrea Lerea", Description: "Estudios ecográficos y diagnósticos por imagen", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 6, Name: "ENDOCRINOLOGÍA", Professional: "Lic. Jorgelina Notarpasquale", Description: "Especialista en trastornos hormonales y metabólicos", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 7, Name: "ENTRENAMIENTO", Professional: "Lic. Florencia Colleri", Description: "Entrenamiento personalizado y asesoramiento deportivo", AvailableDays: weekdays, AvailableHours: append(append([]string{}, morningAndAfternoon...), "16:00"), ConsultationDuration: 60, IsActive: true},
	{ID: 8, Name: "FONOAUDIOLOGÍA", Professional: "Lic. Rosana Allega", Description: "Evaluación y tratamiento de trastornos del lenguaje y audición", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 9, Name: "GASTROENTEROLOGÍA", Professional: "Lic. Juan Costanzi", Description: "Especialista en enfermedades del aparato digestivo", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 30, IsActive: true},
	{ID: 10, Name: "MASOTERAPIA/OTROS", Professional: "Lic. Erica Sanchez", Description: "Tratamientos de masoterapia y terapias complementarias", AvailableDays: weekdays, AvailableHours: append(append([]string{}, morningAndAfternoon...), "16:00"), ConsultationDuration: 60, IsActive: true},
	{ID: 11, Name: "NUTRICIÓN", Professional: "Lic. Valentina Rossi", Description: "Asesoramiento nutricional y planes alimentarios", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 12, Name: "OTORRINOLARINGOLOGÍA", Professional: "Lic. Mariano Garcia", Description: "Especialista en enfermedades de oído, nariz y garganta", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 30, IsActive: true},
	{ID: 13, Name: "PLANTILLAS", Professional: "Lic. Martin Besson", Description: "Confección y adaptación de plantillas ortopédicas", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 14, Name: "PSICOLOGÍA", Professional: "Lic. Luciana Jacquelin", Description: "Atención psicológica y terapia individual", AvailableDays: weekdays, AvailableHours: append(append([]string{}, morningAndAfternoon...), "16:00", "16:30"), ConsultationDuration: 60, IsActive: true},
	{ID: 15, Name: "PSICOPEDAGOGÍA", Professional: "Lic. Luisina Morgado", Description: "Evaluación y tratamiento de dificultades de aprendizaje", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 16, Name: "PSIQUIATRÍA", Professional: "Lic. Federico Canga", Description: "Diagnóstico y tratamiento de trastornos mentales", AvailableDays: weekdays, AvailableHours: morningAndAfternoon, ConsultationDuration: 45, IsActive: true},
	{ID: 17, Name: "YOGA", Professional: "Lic. Carina Frattesi", Description: "Clases de yoga y meditación", AvailableDays: weekdays, AvailableHours: append(append([]string{}, morningAndAfternoon...), "16:00"), ConsultationDuration: 60, IsActive: true},
}

var byID map[int]Specialty

func init() {
	byID = make(map[int]Specialty, len(specialties))
	for _, s := range specialties {
		byID[s.ID] = s
	}
}

// All returns every specialty in catalog order.
func All() []Specialty {
	out := make([]Specialty, len(specialties))
	copy(out, specialties)
	return out
}

// ByID looks up a specialty by its id.
func ByID(id int) (Specialty, bool) {
	s, ok := byID[id]
	return s, ok
}
