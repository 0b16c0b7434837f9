package bot

// Audience- and admin-facing strings. The audience texts are Romanian like
// the configurable templates; admin texts stay Romanian for consistency.
const (
	msgUnknownCommand = "Comandă necunoscută. Folosește /help pentru lista de comenzi."
	msgNotAdmin       = "Această comandă este disponibilă doar administratorilor."
	msgGenericError   = "A apărut o eroare. Încearcă din nou."
	msgCancelled      = "Acțiune anulată."

	msgAlreadyRegistered = "Ești deja înregistrat. Te anunțăm înainte de fiecare webinar!"

	promptBroadcastText = "Trimite textul anunțului. Poți folosi {first_name} și {last_name}."
	promptMessageText   = "Trimite noul text al mesajului. Placeholder-e disponibile: " +
		"{first_name}, {last_name}, {next_webinar_date}, {webinar_day}, {webinar_time}."
	promptWebinar = "Trimite noua programare în formatul: Zi HH:MM [Fus orar]\n" +
		"Exemplu: Marți 19:00 Europe/Bucharest"
	promptReminder = "Trimite ziua și ora reminderului în formatul: Zi HH:MM\n" +
		"Exemplu: Marți 09:00"
	promptAdminAdd = "Trimite ID-ul numeric Telegram al noului administrator."
	promptAdminDel = "Trimite ID-ul numeric al administratorului de eliminat."

	msgBroadcastConfirm = "Trimit acest anunț tuturor participanților activi?"
	msgBroadcastAborted = "Anunțul nu a fost trimis."

	helpUser = "Comenzi disponibile:\n" +
		"/start – înregistrare la webinar\n" +
		"/info – detalii despre următorul webinar\n" +
		"/menu – meniu rapid\n" +
		"/help – această listă"

	helpAdmin = "\nComenzi de administrare:\n" +
		"/adminmenu – meniu de administrare\n" +
		"/viewschedule – programul curent\n" +
		"/setwebinar – schimbă ziua/ora webinarului\n" +
		"/setreminder – schimbă reminderul din ziua webinarului\n" +
		"/setmessage – editează textele mesajelor\n" +
		"/sendreminder – trimite un reminder acum\n" +
		"/broadcast – anunț către toți participanții\n" +
		"/exportcsv – export participanți (CSV)\n" +
		"/syncsheet – sincronizare cu foaia de calcul\n" +
		"/addadmin /deladmin /listadmins – administratori"
)
