package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/bank"
)

var firstNames = []string{
	"Akbar", "Aziz", "Bobur", "Davron", "Eldor", "Farrux", "Gulnora", "Dilnoza",
	"Jasur", "Kamola", "Laylo", "Malika", "Nodir", "Otabek", "Rustam", "Sardor",
	"Shaxzod", "Umida", "Zarina", "Zafar", "Nilufar", "Madina", "Javohir", "Sevara",
}

var lastNames = []string{
	"Aliyev", "Karimov", "Rahimov", "Tosheva", "Yusupov", "Ismoilov", "Saidova",
	"Nazarov", "Mirzayev", "Abdullayeva", "Qodirov", "Sultonova", "Ergashev",
	"Xolmatov", "Olimova", "Berdiyev",
}

var accountTypes = []string{"savings", "checking", "business", "credit"}

var txTypes = []string{"debit", "credit", "transfer", "payment", "withdrawal", "deposit"}

var txDescriptions = []string{
	"Card purchase", "Utility payment", "Salary transfer", "ATM withdrawal",
	"Mobile top-up", "Online transfer", "Loan repayment", "Cash deposit",
	"Subscription fee", "Rent payment",
}

// Generator produces deterministic mock banking data. The same seed
// yields the same dataset on every run, which keeps dev and test
// environments reproducible.
type Generator struct {
	rnd *rand.Rand

	nextClientID      int64
	nextAccountID     int64
	nextTransactionID int64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// NextClient generates one client together with its accounts and their
// transactions. IDs are assigned by the generator so the dataset is
// portable across database engines.
func (g *Generator) NextClient() (bank.Client, []bank.Account, []bank.Transaction) {
	g.nextClientID++
	clientID := g.nextClientID

	client := bank.Client{
		ID:        clientID,
		Name:      pickOne(g.rnd, firstNames) + " " + pickOne(g.rnd, lastNames),
		BirthDate: g.randomDate(1950, 2005),
		Region:    pickOne(g.rnd, bank.Regions),
		Phone:     fmt.Sprintf("+99890%07d", g.rnd.Intn(10000000)),
		Email:     fmt.Sprintf("user%d@email.uz", clientID-1),
	}

	accountCount := 1 + g.rnd.Intn(3)
	accounts := make([]bank.Account, 0, accountCount)
	var transactions []bank.Transaction

	for i := 0; i < accountCount; i++ {
		g.nextAccountID++
		account := bank.Account{
			ID:            g.nextAccountID,
			ClientID:      clientID,
			AccountNumber: fmt.Sprintf("8600%016d", g.nextAccountID),
			Balance:       round2(1000 + g.rnd.Float64()*(100000000-1000)),
			AccountType:   pickOne(g.rnd, accountTypes),
			OpenDate:      g.randomDate(2020, 2024),
			Status:        "active",
		}
		accounts = append(accounts, account)
		transactions = append(transactions, g.transactionsFor(account)...)
	}

	return client, accounts, transactions
}

func (g *Generator) transactionsFor(account bank.Account) []bank.Transaction {
	count := 10 + g.rnd.Intn(41)
	items := make([]bank.Transaction, 0, count)
	for i := 0; i < count; i++ {
		g.nextTransactionID++
		items = append(items, bank.Transaction{
			ID:              g.nextTransactionID,
			AccountID:       account.ID,
			Amount:          round2(-50000 + g.rnd.Float64()*150000),
			OccurredAt:      g.randomTimestamp(),
			TxType:          pickOne(g.rnd, txTypes),
			Description:     pickOne(g.rnd, txDescriptions),
			ReferenceNumber: fmt.Sprintf("TX%09d", g.nextTransactionID),
		})
	}
	return items
}

func (g *Generator) randomDate(minYear, maxYear int) time.Time {
	year := minYear + g.rnd.Intn(maxYear-minYear+1)
	month := time.Month(1 + g.rnd.Intn(12))
	day := 1 + g.rnd.Intn(28)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (g *Generator) randomTimestamp() time.Time {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 9, 27, 0, 0, 0, 0, time.UTC)
	window := int64(end.Sub(start) / time.Second)
	return start.Add(time.Duration(g.rnd.Int63n(window)) * time.Second)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
