package tasks

import "careerlaunch_api/internal/services"

// DefineTasks registers all available tasks. The email service is
// injected here so task handlers never reach into the environment.
func DefineTasks(email *services.EmailService) {
	PaymentConfirmationTask.Email = email
	RegisterHandler(PaymentConfirmationTask.TaskID(), PaymentConfirmationTask.HandleExecution)

	RegisterHandler(ExpireStalePaymentsTask.TaskID(), ExpireStalePaymentsTask.HandleExecution)
}
