package api

import "net/http"

type exampleQuestion struct {
	Title    string `json:"title"`
	Question string `json:"question"`
	Chart    string `json:"chart"`
}

// Canned questions shown in the UI. They cover the fallback rules, so
// the demo works even without a model server.
var exampleQuestions = []exampleQuestion{
	{Title: "Clients by region", Question: "Har bir viloyatdagi mijozlar sonini ko'rsat", Chart: "pie"},
	{Title: "Largest balances", Question: "Eng ko'p balansga ega 10 ta hisobni ko'rsat", Chart: "bar"},
	{Title: "Toshkent clients", Question: "Toshkent viloyatidagi mijozlar sonini ko'rsat", Chart: "bar"},
	{Title: "Account types", Question: "Har bir hisob turida qancha hisob borligini ko'rsat", Chart: "pie"},
	{Title: "Transactions in 2024", Question: "2024 yildagi jami tranzaksiyalar sonini ko'rsat", Chart: "bar"},
}

func handleExamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"examples": exampleQuestions})
}
