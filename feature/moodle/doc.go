// Package moodle is a client for the REST web service of the learning
// platform.
//
// Requests are form-encoded POSTs to /webservice/rest/server.php carrying
// wstoken, moodlewsrestformat=json and wsfunction. The service answers
// exceptions with HTTP 200 and a JSON body of exception, errorcode and
// message; those are returned as *APIError.
//
// Client reads the accounts of the managed auth plugin and creates, patches
// and suspends accounts. With removal mode "anonymize" a removed account is
// also stripped of personal data, see model.Anonymize.
package moodle
