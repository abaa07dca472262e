package stock_max

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/stockmax/internal/pipeline"
)

const (
	salesCSV = `Rótulos de Linha,Tipodesc,QtVeiculo,Preço,Porto,Lisboa,SMFeira
P1,X,10,"2,5",104,0,0
P2,X,5,1,3,0,0
P3,Y,1,4,20,30,50
P4,Z,1,1,1,1,1
`
	policyCSV = `Tipo,Vendas,ABC,Central,calculo_Central,Regional,calculo_Regional,Local,calculo_Local
Normal,0,C,1,sm,2,sm,2,sm
Normal,100,A,4,sm,3,sm,7,un
Direto,0,D,2,un,2,un,2,un
`
	limitsCSV = `Tipodesc,Porto,Lisboa,SMFeira,Stock Direto
X,0,0,0,0
Y,0,40,0,1
`
	overridesCSV = `RótulosdeLinha,Porto SM,Lisboa SM,SMFeira SM
P2,0,6,
`
)

func writeFixtures(t *testing.T) pipeline.Inputs {
	t.Helper()
	dir := t.TempDir()
	files := map[pipeline.TableName][2]string{
		pipeline.TableSales:     {"vendas.csv", salesCSV},
		pipeline.TablePolicy:    {"configuracao.csv", policyCSV},
		pipeline.TableLimits:    {"limite.csv", limitsCSV},
		pipeline.TableOverrides: {"stock_manual.csv", overridesCSV},
	}
	inputs := make(pipeline.Inputs)
	for table, f := range files {
		path := filepath.Join(dir, f[0])
		if err := os.WriteFile(path, []byte(f[1]), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		inputs[table] = path
	}
	return inputs
}
