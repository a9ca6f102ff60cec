package notification

import (
	"fmt"

	"github.com/healthsync/healthsync-api/internal/model"
)

const timeLayout = "15:04:05"

func BookingConfirmed(patient *model.Patient, doctor *model.Doctor, booking *model.Booking, to string) model.Notification {
	return model.Notification{
		Subject: "Your Appointment is Confirmed",
		Body: fmt.Sprintf(
			"Dear %s,\n\n"+
				"Your appointment with Dr. %s %s has been successfully booked.\n"+
				"Appointment Details:\n"+
				"• Date: %s\n"+
				"• Time: %s\n\n"+
				"Please reach out if you have any questions.",
			patient.FirstName, doctor.FirstName, doctor.LastName,
			booking.Date, booking.StartTime.Format(timeLayout)),
		Recipients: []string{to},
	}
}

func BookingCancelled(patient *model.Patient, doctor *model.Doctor, booking *model.Booking, to string) model.Notification {
	return model.Notification{
		Subject: "Your Appointment has been Cancelled",
		Body: fmt.Sprintf(
			"Dear %s,\n\n"+
				"We regret to inform you that your appointment with Dr. %s %s on %s at %s has been cancelled.\n\n"+
				"We apologize for any inconvenience this may cause. "+
				"Please reach out if you have any questions or need to reschedule.\n\n"+
				"Best regards,\nHealthSync Team",
			patient.FirstName, doctor.FirstName, doctor.LastName,
			booking.Date, booking.StartTime.Format(timeLayout)),
		Recipients: []string{to},
	}
}

func ProfileUpdated(patient *model.Patient, to string) model.Notification {
	return model.Notification{
		Subject:    "Your Profile Has Been Updated",
		Body:       fmt.Sprintf("Hi %s,\n\nYour profile has been successfully updated.", patient.FirstName),
		Recipients: []string{to},
	}
}

func ProfileDeleted(patient *model.Patient, to string) model.Notification {
	return model.Notification{
		Subject:    "Your Profile Has Been Deleted",
		Body:       fmt.Sprintf("Hi %s,\n\nYour profile has been successfully deleted.", patient.FirstName),
		Recipients: []string{to},
	}
}

func WelcomePatient(patient *model.Patient, to string) model.Notification {
	return model.Notification{
		Subject:    "Welcome to the Hospital System",
		Body:       fmt.Sprintf("Hi %s,\n\nYour patient profile has been successfully created!", patient.FirstName),
		Recipients: []string{to},
	}
}

func WelcomeDoctor(doctor *model.Doctor, to string) model.Notification {
	return model.Notification{
		Subject: "Welcome to HealthSync, Dr. " + doctor.LastName,
		Body: fmt.Sprintf("Hello Dr. %s %s,\n\nYour doctor account has been set up successfully!",
			doctor.FirstName, doctor.LastName),
		Recipients: []string{to},
	}
}
