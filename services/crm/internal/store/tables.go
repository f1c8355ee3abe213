// Package store provides typed access to the CRM tables in the record
// store: contacts, companies, deals, and notifications.
package store

const (
	TableContacts      = "contact_c"
	TableCompanies     = "company_c"
	TableDeals         = "deal_c"
	TableNotifications = "notification_c"
)

const (
	fieldName = "Name"

	fieldFirstName      = "first_name_c"
	fieldLastName       = "last_name_c"
	fieldEmail          = "email_c"
	fieldPhone          = "phone_c"
	fieldCompanyID      = "company_id_c"
	fieldLifecycleStage = "lifecycle_stage_c"
	fieldNotes          = "notes_c"

	fieldIndustry      = "industry_c"
	fieldWebsite       = "website_c"
	fieldEmployeeCount = "employee_count_c"

	fieldTitle     = "title_c"
	fieldContactID = "contact_id_c"
	fieldStage     = "stage_c"
	fieldValue     = "value_c"

	fieldUserID     = "user_id_c"
	fieldMessage    = "message_c"
	fieldNotifyType = "notification_type_c"
	fieldIsRead     = "is_read_c"
)
