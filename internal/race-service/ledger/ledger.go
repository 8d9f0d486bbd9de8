package ledger

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

// DefaultStartingBalance é o saldo inicial quando nada é configurado
const DefaultStartingBalance int64 = 1000

// account guarda o saldo de um usuário com seu próprio lock,
// assim operações de usuários diferentes não disputam o mesmo mutex
type account struct {
	mu      sync.Mutex
	balance int64
}

// Ledger mantém o saldo em memória de cada usuário.
// Contas são criadas sob demanda com o saldo inicial e nunca removidas.
type Ledger struct {
	startingBalance int64

	mu       sync.RWMutex
	accounts map[string]*account
}

// New cria um Ledger com o saldo inicial informado (negativo vira 0)
func New(startingBalance int64) *Ledger {
	if startingBalance < 0 {
		startingBalance = 0
	}
	return &Ledger{
		startingBalance: startingBalance,
		accounts:        make(map[string]*account),
	}
}

// StartingBalance retorna o saldo com que novas contas são abertas
func (l *Ledger) StartingBalance() int64 { return l.startingBalance }

// get retorna (ou cria) a conta do usuário
func (l *Ledger) get(userID string) *account {
	l.mu.RLock()
	acc, ok := l.accounts[userID]
	l.mu.RUnlock()
	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok = l.accounts[userID]; ok {
		return acc
	}
	acc = &account{balance: l.startingBalance}
	l.accounts[userID] = acc
	return acc
}

// Balance retorna o saldo atual do usuário.
// A leitura cria a conta com o saldo inicial se ela ainda não existir (intencional).
func (l *Ledger) Balance(userID string) int64 {
	acc := l.get(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance
}

// Debit retira amount do saldo do usuário. Falha sem alterar nada se o saldo for insuficiente.
func (l *Ledger) Debit(userID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit %d: %w", amount, domain.ErrInvalidAmount)
	}
	acc := l.get(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.balance < amount {
		return fmt.Errorf("debit %d with balance %d: %w", amount, acc.balance, domain.ErrInsufficientFunds)
	}
	acc.balance -= amount
	return nil
}

// Credit soma amount ao saldo do usuário. Crédito de 0 é aceito (aposta perdedora).
// Um crédito que estouraria o saldo é recusado sem alterar nada.
func (l *Ledger) Credit(userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d: %w", amount, domain.ErrInvalidAmount)
	}
	acc := l.get(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if amount > math.MaxInt64-acc.balance {
		return fmt.Errorf("credit %d with balance %d: %w", amount, acc.balance, domain.ErrInvalidAmount)
	}
	acc.balance += amount
	return nil
}

// CreditAll aplica vários créditos de uma vez: ou todos entram ou nenhum.
// As contas são travadas em ordem de id, assim liquidações concorrentes não entram em deadlock.
func (l *Ledger) CreditAll(credits map[string]int64) error {
	ids := make([]string, 0, len(credits))
	for id, amount := range credits {
		if amount < 0 {
			return fmt.Errorf("credit %d to %s: %w", amount, id, domain.ErrInvalidAmount)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	accs := make([]*account, len(ids))
	for i, id := range ids {
		accs[i] = l.get(id)
		accs[i].mu.Lock()
		defer accs[i].mu.Unlock()
	}

	for i, id := range ids {
		if credits[id] > math.MaxInt64-accs[i].balance {
			return fmt.Errorf("credit %d to %s with balance %d: %w", credits[id], id, accs[i].balance, domain.ErrInvalidAmount)
		}
	}
	for i, id := range ids {
		accs[i].balance += credits[id]
	}
	return nil
}
