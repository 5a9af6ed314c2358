package db

import "gorm.io/gorm"

type Repositories struct {
	Users        *UserRepository
	Profiles     *ProfileRepository
	Pregnancies  *PregnancyRepository
	Emergency    *EmergencyRepository
	Symptoms     *SymptomRepository
	Appointments *AppointmentRepository
	Babies       *BabyRepository
	Chat         *ChatRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(database),
		Profiles:     NewProfileRepository(database),
		Pregnancies:  NewPregnancyRepository(database),
		Emergency:    NewEmergencyRepository(database),
		Symptoms:     NewSymptomRepository(database),
		Appointments: NewAppointmentRepository(database),
		Babies:       NewBabyRepository(database),
		Chat:         NewChatRepository(database),
	}
}
