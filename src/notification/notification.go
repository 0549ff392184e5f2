package notification

import "log"

// ShowBlockingError logs message and shows it in a modal dialog where the
// platform has one. It returns once the user dismissed the dialog.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	showMessageBox(title, message, iconError)
}

// ShowInfo is ShowBlockingError for non-fatal notices.
func ShowInfo(title, message string) {
	log.Printf("%s: %s", title, message)
	showMessageBox(title, message, iconInformation)
}
