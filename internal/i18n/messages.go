package i18n

import "fmt"

// Key identifies a user-facing message.
type Key string

const (
	MsgChooseLanguage   Key = "choose_lang"
	MsgMenu             Key = "menu"
	MsgAskPartyName     Key = "ask_party_name"
	MsgPartyCreated     Key = "party_created"
	MsgPartyReselected  Key = "party_reselected"
	MsgNoParties        Key = "no_parties"
	MsgChooseParty      Key = "choose_party_prompt"
	MsgPartySelected    Key = "party_selected"
	MsgPartyNotFound    Key = "party_not_found"
	MsgAskAmount        Key = "ask_amount"
	MsgAskDescription   Key = "ask_desc"
	MsgExpenseAdded     Key = "expense_added"
	MsgInvalidAmount    Key = "invalid_amount"
	MsgNoCurrentParty   Key = "no_current_party"
	MsgMembersNone      Key = "members_none"
	MsgMembersList      Key = "members_list"
	MsgEditMembersMenu  Key = "edit_members_menu"
	MsgAskMemberName    Key = "ask_member_name"
	MsgMemberAdded      Key = "member_added"
	MsgMemberExists     Key = "member_exists"
	MsgMemberRemoved    Key = "member_removed"
	MsgMemberNotFound   Key = "member_not_found"
	MsgChooseToDelete   Key = "choose_party_to_delete"
	MsgBackToMenu       Key = "back_to_menu"
	MsgNoPermission     Key = "no_permission_delete"
	MsgPartyDeleted     Key = "party_deleted"
	MsgExportDone       Key = "export_done"
	MsgSummaryHeader    Key = "summary_header"
	MsgSummaryParty     Key = "summary_party"
	MsgSummaryAverage   Key = "summary_average"
	MsgSummaryTransfers Key = "summary_transfers"
	MsgAllSettled       Key = "all_settled"
	MsgChangeLanguage   Key = "change_lang_prompt"
	MsgLanguageSet      Key = "language_set"
	MsgInternalError    Key = "internal_error"
)

var catalog = map[Language]map[Key]string{
	Ukrainian: {
		MsgChooseLanguage:   "Оберіть мову / Choose language:",
		MsgMenu:             "Головне меню — оберіть дію:",
		MsgAskPartyName:     "Введіть назву нової вечірки:",
		MsgPartyCreated:     "🎉 Вечірку '%s' створено і вибрано.",
		MsgPartyReselected:  "🎈 Вечірка '%s' вже існує — її вибрано.",
		MsgNoParties:        "Поки що немає вечірок.",
		MsgChooseParty:      "Оберіть вечірку зі списку:",
		MsgPartySelected:    "✅ Вибрано вечірку: %s",
		MsgPartyNotFound:    "❌ Такої вечірки немає.",
		MsgAskAmount:        "💰 Введіть суму витрати (наприклад: 25.50):",
		MsgAskDescription:   "📝 Введіть опис витрати (або '-' для пропуску):",
		MsgExpenseAdded:     "✅ Додано витрату %s від %s",
		MsgInvalidAmount:    "❗ Некоректна сума. Спробуйте ще раз.",
		MsgNoCurrentParty:   "❗ Спочатку оберіть вечірку.",
		MsgMembersNone:      "Поки що немає учасників.",
		MsgMembersList:      "👥 Учасники вечірки:",
		MsgEditMembersMenu:  "Керування учасниками — оберіть дію:",
		MsgAskMemberName:    "Введіть нік або ім'я учасника (без @):",
		MsgMemberAdded:      "✅ Учасника %s додано.",
		MsgMemberExists:     "ℹ️ %s вже є учасником.",
		MsgMemberRemoved:    "🗑️ Учасника %s видалено.",
		MsgMemberNotFound:   "❗ Учасника не знайдено.",
		MsgChooseToDelete:   "Оберіть вечірку для видалення (лише автор може видаляти):",
		MsgBackToMenu:       "↩️ Повертаємось у меню.",
		MsgNoPermission:     "⛔ Лише автор вечірки може її видалити.",
		MsgPartyDeleted:     "🗑️ Вечірку '%s' видалено.",
		MsgExportDone:       "✅ Файл надіслано.",
		MsgSummaryHeader:    "📊 Підсумок вечірки:",
		MsgSummaryParty:     "Вечірка: %s",
		MsgSummaryAverage:   "Середнє: %s",
		MsgSummaryTransfers: "Рекомендовані перекази:",
		MsgAllSettled:       "✅ Усі розрахувалися.",
		MsgChangeLanguage:   "Оберіть мову:",
		MsgLanguageSet:      "🌐 Мову змінено.",
		MsgInternalError:    "⚠️ Не вдалося зберегти зміни. Спробуйте пізніше.",
	},
	English: {
		MsgChooseLanguage:   "Choose language / Оберіть мову:",
		MsgMenu:             "Main menu — choose action:",
		MsgAskPartyName:     "Enter new party name:",
		MsgPartyCreated:     "🎉 Party '%s' created and selected.",
		MsgPartyReselected:  "🎈 Party '%s' already exists — selected it.",
		MsgNoParties:        "No parties yet.",
		MsgChooseParty:      "Choose a party from the list:",
		MsgPartySelected:    "✅ Selected party: %s",
		MsgPartyNotFound:    "❌ No such party.",
		MsgAskAmount:        "💰 Enter amount (e.g. 25.50):",
		MsgAskDescription:   "📝 Enter description (or '-' to skip):",
		MsgExpenseAdded:     "✅ Added expense %s from %s",
		MsgInvalidAmount:    "❗ Invalid amount. Try again.",
		MsgNoCurrentParty:   "❗ Please select a party first.",
		MsgMembersNone:      "No members yet.",
		MsgMembersList:      "👥 Party members:",
		MsgEditMembersMenu:  "Manage members — choose action:",
		MsgAskMemberName:    "Enter member name or nickname (without @):",
		MsgMemberAdded:      "✅ Member %s added.",
		MsgMemberExists:     "ℹ️ %s is already a member.",
		MsgMemberRemoved:    "🗑️ Member %s removed.",
		MsgMemberNotFound:   "❗ Member not found.",
		MsgChooseToDelete:   "Choose a party to delete (only creator can delete):",
		MsgBackToMenu:       "↩️ Returning to menu.",
		MsgNoPermission:     "⛔ Only party creator can delete it.",
		MsgPartyDeleted:     "🗑️ Party '%s' deleted.",
		MsgExportDone:       "✅ File sent.",
		MsgSummaryHeader:    "📊 Party summary:",
		MsgSummaryParty:     "Party: %s",
		MsgSummaryAverage:   "Average: %s",
		MsgSummaryTransfers: "Suggested transfers:",
		MsgAllSettled:       "✅ All settled.",
		MsgChangeLanguage:   "Choose language:",
		MsgLanguageSet:      "🌐 Language changed.",
		MsgInternalError:    "⚠️ Could not save changes. Please try again later.",
	},
}

// Text renders key in lang, formatting args into the template.
func Text(lang Language, key Key, args ...any) string {
	tmpl, ok := catalog[lang.OrDefault()][key]
	if !ok {
		tmpl, ok = catalog[English][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
