package outlook

import "strings"

// folderAliases maps lower-cased logical and localized folder names to
// well-known root folders.
var folderAliases = map[string]FolderKind{
	// Inbox
	"inbox":                  FolderInbox,
	"posteingang":            FolderInbox,
	"inkorg":                 FolderInbox,
	"doručená pošta":         FolderInbox,
	"indbakke":               FolderInbox,
	"innboks":                FolderInbox,
	"saapuneet":              FolderInbox,
	"postvak in":             FolderInbox,
	"boîte de réception":     FolderInbox,
	"boite de reception":     FolderInbox,
	"bandeja de entrada":     FolderInbox,
	"posta in arrivo":        FolderInbox,
	"caixa de entrada":       FolderInbox,
	"skrzynka odbiorcza":     FolderInbox,
	"beérkezett üzenetek":    FolderInbox,
	"beerkezett uzenetek":    FolderInbox,
	"mesaje primite":         FolderInbox,
	"gelen kutusu":           FolderInbox,
	"受信トレイ":                 FolderInbox,
	"收件箱":                    FolderInbox,
	"받은 편지함":                 FolderInbox,
	"входящие":               FolderInbox,
	"علبة الوارد":            FolderInbox,
	"דואר נכנס":              FolderInbox,

	// Sent Items
	"sent":                   FolderSent,
	"sent mail":              FolderSent,
	"sentmail":               FolderSent,
	"sent items":             FolderSent,
	"gesendete elemente":     FolderSent,
	"skickat":                FolderSent,
	"odeslaná pošta":         FolderSent,
	"sendt post":             FolderSent,
	"sendte elementer":       FolderSent,
	"lähetetyt":              FolderSent,
	"verzonden items":        FolderSent,
	"éléments envoyés":       FolderSent,
	"elements envoyes":       FolderSent,
	"elementos enviados":     FolderSent,
	"posta inviata":          FolderSent,
	"itens enviados":         FolderSent,
	"elementy wysłane":       FolderSent,
	"elementy wyslane":       FolderSent,
	"elküldött elemek":       FolderSent,
	"elkuldott elemek":       FolderSent,
	"elemente trimise":       FolderSent,
	"gönderilmiş öğeler":     FolderSent,
	"gonderilmis ogeler":     FolderSent,
	"送信済みアイテム":              FolderSent,
	"已发送邮件":                  FolderSent,
	"보낸 편지함":                 FolderSent,
	"отправленные":           FolderSent,
	"العناصر المرسلة":        FolderSent,
	"פריטים שנשלחו":          FolderSent,

	// Drafts
	"drafts":                 FolderDrafts,
	"entwürfe":               FolderDrafts,
	"utkast":                 FolderDrafts,
	"koncepty":               FolderDrafts,
	"kladder":                FolderDrafts,
	"kladd":                  FolderDrafts,
	"luonnokset":             FolderDrafts,
	"concepten":              FolderDrafts,
	"brouillons":             FolderDrafts,
	"borradores":             FolderDrafts,
	"bozze":                  FolderDrafts,
	"rascunhos":              FolderDrafts,
	"wersje robocze":         FolderDrafts,
	"piszkozatok":            FolderDrafts,
	"ciorne":                 FolderDrafts,
	"taslaklar":              FolderDrafts,
	"下書き":                    FolderDrafts,
	"草稿":                     FolderDrafts,
	"임시 보관함":                 FolderDrafts,
	"черновики":              FolderDrafts,
	"المسودات":               FolderDrafts,
	"טיוטות":                 FolderDrafts,

	// Deleted Items
	"deleted":                FolderDeleted,
	"deleted items":          FolderDeleted,
	"deleteditems":           FolderDeleted,
	"trash":                  FolderDeleted,
	"gelöschte elemente":     FolderDeleted,
	"borttagna objekt":       FolderDeleted,
	"odstraněná pošta":       FolderDeleted,
	"slettet post":           FolderDeleted,
	"slettede elementer":     FolderDeleted,
	"poistetut":              FolderDeleted,
	"verwijderde items":      FolderDeleted,
	"éléments supprimés":     FolderDeleted,
	"elements supprimes":     FolderDeleted,
	"elementos eliminados":   FolderDeleted,
	"posta eliminata":        FolderDeleted,
	"itens excluídos":        FolderDeleted,
	"itens excluidos":        FolderDeleted,
	"itens eliminados":       FolderDeleted,
	"elementy usunięte":      FolderDeleted,
	"elementy usuniete":      FolderDeleted,
	"törölt elemek":          FolderDeleted,
	"torolt elemek":          FolderDeleted,
	"elemente șterse":        FolderDeleted,
	"elemente sterse":        FolderDeleted,
	"silinmiş öğeler":        FolderDeleted,
	"silinmis ogeler":        FolderDeleted,
	"削除済みアイテム":              FolderDeleted,
	"已删除邮件":                  FolderDeleted,
	"지운 편지함":                 FolderDeleted,
	"удалённые":              FolderDeleted,
	"удаленные":              FolderDeleted,
	"العناصر المحذوفة":       FolderDeleted,
	"פריטים שנמחקו":          FolderDeleted,

	// Outbox
	"outbox":                 FolderOutbox,
	"postausgang":            FolderOutbox,
	"utkorg":                 FolderOutbox,
	"pošta k odeslání":       FolderOutbox,
	"udbakke":                FolderOutbox,
	"utboks":                 FolderOutbox,
	"lähtevät":               FolderOutbox,
	"postvak uit":            FolderOutbox,
	"boîte d'envoi":          FolderOutbox,
	"boite d'envoi":          FolderOutbox,
	"bandeja de salida":      FolderOutbox,
	"posta in uscita":        FolderOutbox,
	"caixa de saída":         FolderOutbox,
	"caixa de saida":         FolderOutbox,
	"skrzynka nadawcza":      FolderOutbox,
	"postázandó üzenetek":    FolderOutbox,
	"postazando uzenetek":    FolderOutbox,
	"mesaje de ieșire":       FolderOutbox,
	"mesaje de iesire":       FolderOutbox,
	"giden kutusu":           FolderOutbox,
	"送信トレイ":                 FolderOutbox,
	"发件箱":                    FolderOutbox,
	"보낼 편지함":                 FolderOutbox,
	"исходящие":              FolderOutbox,
	"علبة الصادر":            FolderOutbox,
	"דואר יוצא":              FolderOutbox,

	// Junk E-mail
	"junk":                   FolderJunk,
	"junk mail":              FolderJunk,
	"junkmail":               FolderJunk,
	"junk email":             FolderJunk,
	"spam":                   FolderJunk,
	"junk-e-mail":            FolderJunk,
	"skräppost":              FolderJunk,
	"nevyžádaná pošta":       FolderJunk,
	"uønsket mail":           FolderJunk,
	"søppelpost":             FolderJunk,
	"roskaposti":             FolderJunk,
	"ongewenste e-mail":      FolderJunk,
	"courrier indésirable":   FolderJunk,
	"courrier indesirable":   FolderJunk,
	"correo no deseado":      FolderJunk,
	"posta indesiderata":     FolderJunk,
	"lixo eletrônico":        FolderJunk,
	"lixo eletronico":        FolderJunk,
	"wiadomości-śmieci":      FolderJunk,
	"wiadomosci-smieci":      FolderJunk,
	"levélszemét":            FolderJunk,
	"levelszemet":            FolderJunk,
	"e-mail nedorit":         FolderJunk,
	"gereksiz e-posta":       FolderJunk,
	"迷惑メール":                 FolderJunk,
	"垃圾邮件":                   FolderJunk,
	"정크 메일":                  FolderJunk,
	"нежелательная почта":    FolderJunk,
	"البريد الإلكتروني غير الهام": FolderJunk,
	"דואר זבל":               FolderJunk,

	// Calendar
	"calendar":               FolderCalendar,
	"kalender":               FolderCalendar,
	"kalendář":               FolderCalendar,
	"kalenteri":              FolderCalendar,
	"agenda":                 FolderCalendar,
	"calendrier":             FolderCalendar,
	"calendario":             FolderCalendar,
	"kalendarz":              FolderCalendar,
	"naptár":                 FolderCalendar,
	"naptar":                 FolderCalendar,
	"takvim":                 FolderCalendar,
	"予定表":                    FolderCalendar,
	"日历":                     FolderCalendar,
	"일정":                     FolderCalendar,
	"календарь":              FolderCalendar,
	"التقويم":                FolderCalendar,
	"לוח שנה":                FolderCalendar,

	// Contacts
	"contacts":               FolderContacts,
	"kontakte":               FolderContacts,
	"kontakter":              FolderContacts,
	"kontakty":               FolderContacts,
	"kontaktpersoner":        FolderContacts,
	"yhteystiedot":           FolderContacts,
	"contactpersonen":        FolderContacts,
	"contactos":              FolderContacts,
	"contatti":               FolderContacts,
	"contatos":               FolderContacts,
	"névjegyek":              FolderContacts,
	"nevjegyek":              FolderContacts,
	"persoane de contact":    FolderContacts,
	"kişiler":                FolderContacts,
	"kisiler":                FolderContacts,
	"連絡先":                    FolderContacts,
	"联系人":                    FolderContacts,
	"연락처":                    FolderContacts,
	"контакты":               FolderContacts,
	"جهات الاتصال":           FolderContacts,
	"אנשי קשר":               FolderContacts,
}

// LookupAlias returns the well-known folder for a logical or localized
// folder name. Matching ignores case and surrounding whitespace.
func LookupAlias(name string) (FolderKind, bool) {
	kind, ok := folderAliases[strings.ToLower(strings.TrimSpace(name))]
	return kind, ok
}
